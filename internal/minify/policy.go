// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package minify

import "slices"

const (
	// FailurePolicyAbort fails the affected entry. Nothing is written for
	// it and the failure is reported once all entries are processed.
	FailurePolicyAbort FailurePolicy = "abort"
	// FailurePolicyFallback writes the untransformed content instead.
	FailurePolicyFallback FailurePolicy = "fallback"
)

// FailurePolicy defines how failed transforms are handled.
type FailurePolicy string

func (p *FailurePolicy) isKnown() bool {
	knownPolicies := []FailurePolicy{
		FailurePolicyAbort,
		FailurePolicyFallback,
	}

	return slices.Contains(knownPolicies, *p)
}

// String implements [fmt.Stringer].
func (p *FailurePolicy) String() string {
	if !p.isKnown() {
		return ""
	}

	return string(*p)
}

// MarshalText implements [encoding.TextMarshaler].
func (p FailurePolicy) MarshalText() ([]byte, error) {
	s := p.String()
	if s == "" {
		return nil, ErrFailurePolicyInvalid
	}

	return []byte(s), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (p *FailurePolicy) UnmarshalText(text []byte) error {
	policy := FailurePolicy(text)

	if !policy.isKnown() {
		return ErrFailurePolicyInvalid
	}

	*p = policy

	return nil
}

// Set implements [github.com/spf13/pflag.Value].
func (p *FailurePolicy) Set(s string) error {
	return p.UnmarshalText([]byte(s))
}

// Type implements [github.com/spf13/pflag.Value].
func (*FailurePolicy) Type() string {
	return "policy"
}
