// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package tally computes election results. Per-candidate counts and the
// winner are only revealed once an election is COMPLETED.
package tally
