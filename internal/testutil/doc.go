// Package testutil provides deterministic identity sources and notebook
// builders shared by package tests and the scenario harness.
package testutil
