// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package search

import "errors"

var (
	// ErrAlreadyRun is returned by a second call to Engine.Run.
	ErrAlreadyRun = errors.New("search: engine already run")

	// ErrTimeLimitExceeded indicates the wall clock limit was reached.
	ErrTimeLimitExceeded = errors.New("search: time limit exceeded")

	// ErrNodeLimitExceeded indicates the node limit was reached.
	ErrNodeLimitExceeded = errors.New("search: node limit exceeded")

	// ErrExpansionLimitExceeded indicates the expansion limit was reached.
	ErrExpansionLimitExceeded = errors.New("search: expansion limit exceeded")

	// ErrBudgetExhausted is returned once any limit has been hit.
	ErrBudgetExhausted = errors.New("search: budget exhausted")
)
