// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package timeline

import "gopkg.in/src-d/go-errors.v1"

var (
	// ErrDuplicateObjectID is returned when two timeline objects (or
	// keyframes) share an id.
	ErrDuplicateObjectID = errors.NewKind("all timeline objects must have a unique id (duplicate: %q)")

	// ErrBadExpression is returned when an enable expression of an object
	// fails to parse or simplify. The site is one of "repeating", "end",
	// "duration" or "simplify".
	ErrBadExpression = errors.NewKind("object %q has an invalid %s expression: %s")

	// ErrInstancesArrayNotSupported is returned when a set-valued
	// expression appears where a scalar time is required.
	ErrInstancesArrayNotSupported = errors.NewKind("object %q: an array of instances is not supported for %s")

	// ErrCircularDependency is raised when resolution re-enters an object
	// that is already being resolved. The lookup engine treats it as
	// self-reference rather than a fatal error.
	ErrCircularDependency = errors.NewKind("circular dependency on object %q")

	// ErrUnresolvedObjects is returned when finalization finds objects that
	// never reached the Complete state.
	ErrUnresolvedObjects = errors.NewKind("timeline still has unresolved objects: %s")

	// ErrResolvedWhilePending and ErrResolvedWhileResolved signal internal
	// state-machine violations: an object may only be finalized from the
	// InProgress state.
	ErrResolvedWhilePending  = errors.NewKind("object %q was finalized while still pending")
	ErrResolvedWhileResolved = errors.NewKind("object %q was finalized twice")
)
