package models

import "github.com/ethereum/go-ethereum/common"

// VerificationReport is the result of checking on-chain state against the
// record and an expected configuration. Checks never fail fast.
type VerificationReport struct {
	Network     string           `json:"network"`
	Existence   []ExistenceCheck `json:"existence"`
	Config      []ConfigCheck    `json:"config"`
	Links       []LinkCheck      `json:"links"`
	Pause       []PauseCheck     `json:"pause"`
	Smoke       []SmokeCheck     `json:"smoke"`
	Warnings    []string         `json:"warnings,omitempty"`
	OverallPass bool             `json:"overallPass"`
}

// ExistenceCheck reports whether code is deployed at the recorded address.
type ExistenceCheck struct {
	Contract string         `json:"contract"`
	Address  common.Address `json:"address"`
	Exists   bool           `json:"exists"`
	Error    string         `json:"error,omitempty"`
}

// ConfigCheck compares one configuration value.
type ConfigCheck struct {
	Contract string `json:"contract"`
	Key      string `json:"key"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Match    bool   `json:"match"`
	Error    string `json:"error,omitempty"`
}

// LinkCheck compares a contract's stored reference to a sibling.
type LinkCheck struct {
	From     string         `json:"from"`
	Query    string         `json:"query"`
	To       string         `json:"to"`
	Expected common.Address `json:"expected"`
	Actual   common.Address `json:"actual"`
	Match    bool           `json:"match"`
	Error    string         `json:"error,omitempty"`
}

// PauseCheck reports a contract's pause flag. A paused contract is a warning.
type PauseCheck struct {
	Contract string `json:"contract"`
	Paused   bool   `json:"paused"`
	Error    string `json:"error,omitempty"`
}

// SmokeCheck reports one benign read.
type SmokeCheck struct {
	Contract string `json:"contract"`
	Method   string `json:"method"`
	Result   string `json:"result,omitempty"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

// Mismatches returns the configuration checks that did not match.
func (r *VerificationReport) Mismatches() []ConfigCheck {
	var out []ConfigCheck
	for _, c := range r.Config {
		if !c.Match {
			out = append(out, c)
		}
	}
	return out
}

// Evaluate computes OverallPass from the hard checks. Pause state only warns.
func (r *VerificationReport) Evaluate() bool {
	pass := true
	for _, c := range r.Existence {
		pass = pass && c.Exists
	}
	for _, c := range r.Config {
		pass = pass && c.Match
	}
	for _, c := range r.Links {
		pass = pass && c.Match
	}
	for _, c := range r.Smoke {
		pass = pass && c.OK
	}
	r.OverallPass = pass
	return pass
}
