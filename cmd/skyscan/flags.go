package main

import (
	"fmt"
	"strconv"
)

// webPortFlag implements flag.Value for -web: 0 = disabled, -web= or -web 8080 → 8080, -web 8980 → 8980.
type webPortFlag struct {
	val         int
	defaultPort int
}

func (w *webPortFlag) String() string {
	if w.val == 0 {
		return "0"
	}
	return strconv.Itoa(w.val)
}

func (w *webPortFlag) Set(s string) error {
	if s == "" {
		w.val = w.defaultPort
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v <= 0 || v > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", v)
	}
	w.val = v
	return nil
}

func (w *webPortFlag) port() int { return w.val }

// listFlag implements flag.Value for -list. It behaves as a boolean flag so
// that -list alone selects defaultCount; -list=N selects N.
type listFlag struct {
	val          int
	defaultCount int
}

func (l *listFlag) IsBoolFlag() bool { return true }

func (l *listFlag) String() string {
	return strconv.Itoa(l.val)
}

func (l *listFlag) Set(s string) error {
	switch s {
	case "", "true":
		l.val = l.defaultCount
		return nil
	case "false":
		l.val = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v <= 0 {
		return fmt.Errorf("list count must be positive, got %d", v)
	}
	l.val = v
	return nil
}

func (l *listFlag) count() int { return l.val }
