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

// Package gwerr defines the public error taxonomy for the gateway client:
// Error, InterfaceError and DatabaseError with its six subclasses, mirroring
// the database-client error hierarchy laid out in PEP 249. It is built on
// top of the errors package (code + stack trace + hierarchy engine) rather
// than a plain Go error tree, so that a classified failure still carries
// the original server payload as a parent error.
package gwerr

import (
	"fmt"

	liberr "github.com/mapepire-ibmi/gateway-core-go/errors"
)

const pkgName = "gwerr"

const (
	// CodeInterfaceError flags misuse of the client API itself: invalid
	// options, or violating a state-machine precondition (Run on an
	// already-run Query, FetchMore before Run, ...). An operation on a closed
	// channel is reported as CodeProgrammingError (see ConnectionClosed).
	CodeInterfaceError liberr.CodeError = iota + liberr.MinPkgGateway
	// CodeDatabaseError is the generic DatabaseError fallback: any
	// server-reported failure that does not match a more specific rule.
	CodeDatabaseError
	// CodeDataError flags invalid input or out-of-range conversions
	// reported by the server ("Invalid Input Error", "Out of Range Error").
	CodeDataError
	// CodeOperationalError flags transport-level failures: socket, TLS or
	// handshake errors, connection loss.
	CodeOperationalError
	// CodeIntegrityError flags constraint violations (SQL state class
	// 23xxx, or a message containing "Constraint Error").
	CodeIntegrityError
	// CodeInternalError flags a server-reported internal failure.
	CodeInternalError
	// CodeProgrammingError flags missing table/column, bad SQL, or an
	// operation invoked on a closed channel/cursor.
	CodeProgrammingError
	// CodeNotSupportedError flags a feature the server cannot provide.
	CodeNotSupportedError
)

func init() {
	if liberr.ExistInMapMessage(CodeInterfaceError) {
		panic(fmt.Errorf("error code collision with package %s", pkgName))
	}
	liberr.RegisterIdFctMessage(CodeInterfaceError, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case liberr.UnknownError:
		return liberr.NullMessage
	case CodeInterfaceError:
		return "gateway: misuse of the client API"
	case CodeDatabaseError:
		return "gateway: database error"
	case CodeDataError:
		return "gateway: invalid input or out-of-range value"
	case CodeOperationalError:
		return "gateway: connection lost or transport failure"
	case CodeIntegrityError:
		return "gateway: constraint violation"
	case CodeInternalError:
		return "gateway: server-reported internal failure"
	case CodeProgrammingError:
		return "gateway: missing object, bad SQL, or closed handle"
	case CodeNotSupportedError:
		return "gateway: feature not supported by the server"
	}
	return liberr.NullMessage
}

// InterfaceError wraps misuse of the client API (closed handle, bad
// state-machine transition) as a liberr.Error of class CodeInterfaceError.
func InterfaceError(msg string, parent ...error) liberr.Error {
	if msg == "" {
		return CodeInterfaceError.Error(parent...)
	}
	return liberr.New(CodeInterfaceError.Uint16(), msg, parent...)
}

// ConnectionClosed is the canonical ProgrammingError raised when an
// operation targets a Channel or Query that has already reached its
// terminal state (mapping rules, second rule: closed channel/cursor).
func ConnectionClosed() liberr.Error {
	return liberr.New(CodeProgrammingError.Uint16(), "cannot operate on a closed connection")
}

// Classify turns a raw server-reported failure into the matching
// DatabaseError subclass, applying the mapping rules in the fixed order
// (first match wins): Operational, Programming ("not found" patterns),
// Integrity (SQL state 23xxx / "Constraint Error"), Data ("Invalid Input" /
// "Out of Range"), else the generic DatabaseError fallback. The raw payload
// is attached as a parent error so sql_state/sql_rc remain inspectable.
func Classify(payload Payload) liberr.Error {
	switch {
	case payload.Transport:
		return liberr.New(CodeOperationalError.Uint16(), payload.Message, payload.asParent())
	case matchesAny(payload.Message, programmingPatterns):
		return liberr.New(CodeProgrammingError.Uint16(), payload.Message, payload.asParent())
	case isConstraintClass(payload.SQLState) || containsFold(payload.Message, "constraint error"):
		return liberr.New(CodeIntegrityError.Uint16(), payload.Message, payload.asParent())
	case containsFold(payload.Message, "invalid input") || containsFold(payload.Message, "out of range"):
		return liberr.New(CodeDataError.Uint16(), payload.Message, payload.asParent())
	default:
		return liberr.New(CodeDatabaseError.Uint16(), payload.Message, payload.asParent())
	}
}
