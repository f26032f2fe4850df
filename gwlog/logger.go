/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package gwlog is the structured logging facade shared by channel, pool and
// tlscache: a level and fields vocabulary backed directly by logrus.
package gwlog

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is the structured logger contract consumed by channel, pool and
// tlscache. Implementations must be safe for concurrent use.
type Logger interface {
	SetLevel(l Level)
	GetLevel() Level
	SetOutput(w io.Writer)

	WithFields(f Fields) Logger

	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields, err error)
}

type logger struct {
	mu  sync.RWMutex
	log *logrus.Logger
	std Fields
}

// New returns a Logger writing to stderr at Info level, formatted as JSON so
// downstream collectors can index by field name.
func New() Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.JSONFormatter{})

	return &logger{log: l, std: NewFields()}
}

// Discard returns a Logger that drops every entry, used as the zero-value
// default when a caller does not provide one.
func Discard() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &logger{log: l, std: NewFields()}
}

func (g *logger) SetLevel(l Level) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.log.SetLevel(l.logrus())
}

func (g *logger) GetLevel() Level {
	g.mu.RLock()
	defer g.mu.RUnlock()

	switch g.log.GetLevel() {
	case logrus.PanicLevel:
		return PanicLevel
	case logrus.FatalLevel:
		return FatalLevel
	case logrus.ErrorLevel:
		return ErrorLevel
	case logrus.WarnLevel:
		return WarnLevel
	case logrus.InfoLevel:
		return InfoLevel
	case logrus.DebugLevel:
		return DebugLevel
	default:
		return NilLevel
	}
}

func (g *logger) SetOutput(w io.Writer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.log.SetOutput(w)
}

func (g *logger) WithFields(f Fields) Logger {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return &logger{log: g.log, std: g.std.Merge(f)}
}

func (g *logger) Debug(msg string, f Fields) {
	g.entry(f).Debug(msg)
}

func (g *logger) Info(msg string, f Fields) {
	g.entry(f).Info(msg)
}

func (g *logger) Warn(msg string, f Fields) {
	g.entry(f).Warn(msg)
}

func (g *logger) Error(msg string, f Fields, err error) {
	e := g.entry(f)
	if err != nil {
		e = e.WithError(err)
	}
	e.Error(msg)
}

func (g *logger) entry(f Fields) *logrus.Entry {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.log.WithFields(g.std.Merge(f).logrus())
}
