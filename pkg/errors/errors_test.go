// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	mnemoerr "github.com/mnemo-dev/mnemo/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIncludesCodeAndFields(t *testing.T) {
	err := mnemoerr.New(
		mnemoerr.CodeStoreDatabaseFailure,
		"insert failed",
		mnemoerr.FieldContactID(7),
		mnemoerr.Field("table", "messages"),
	)

	require.Error(t, err)
	assert.Equal(t, mnemoerr.CodeStoreDatabaseFailure, mnemoerr.CodeOf(err))
	assert.True(t, mnemoerr.HasCode(err, mnemoerr.CodeStoreDatabaseFailure))

	fields := mnemoerr.FieldsOf(err)
	assert.Equal(t, int64(7), fields["contact_id"])
	assert.Equal(t, "messages", fields["table"])
}

func TestErrorfWrapsInnerError(t *testing.T) {
	inner := stderrors.New("disk full")
	err := mnemoerr.Errorf(mnemoerr.CodeStoreDatabaseFailure, "write failed: %w", inner)
	require.Error(t, err)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, mnemoerr.CodeStoreDatabaseFailure, mnemoerr.CodeOf(err))
}

func TestWrapPreservesWrappedErrorAndCode(t *testing.T) {
	root := stderrors.New("record missing")
	err := mnemoerr.Wrap(
		root,
		mnemoerr.CodeStoreEntityNotFound,
		"loading identity summary",
		mnemoerr.FieldContactID(3),
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, root)
	assert.Equal(t, mnemoerr.CodeStoreEntityNotFound, mnemoerr.CodeOf(err))
	assert.True(t, mnemoerr.IsNotFound(err))
	assert.Equal(t, int64(3), mnemoerr.FieldsOf(err)["contact_id"])
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, mnemoerr.Wrap(nil, mnemoerr.CodePipelinePhaseFailure, "ignored"))
	assert.NoError(t, mnemoerr.Wrapf(nil, mnemoerr.CodePipelinePhaseFailure, "ignored %s", "arg"))
}

func TestWithAddsContextWithoutChangingCode(t *testing.T) {
	base := mnemoerr.New(mnemoerr.CodeEngineSummarizeFailure, "model call failed")
	withCtx := mnemoerr.With(base, mnemoerr.FieldPhase("weekly"))

	require.Error(t, withCtx)
	assert.Equal(t, mnemoerr.CodeEngineSummarizeFailure, mnemoerr.CodeOf(withCtx))
	assert.Equal(t, "weekly", mnemoerr.FieldsOf(withCtx)["phase"])
}

func TestWithOnPlainErrorDefaultsToPipelineCode(t *testing.T) {
	plain := stderrors.New("something broke")
	enriched := mnemoerr.With(plain, mnemoerr.FieldIdentifier("+15551234567"))

	require.Error(t, enriched)
	assert.Equal(t, mnemoerr.CodePipelinePhaseFailure, mnemoerr.CodeOf(enriched))
	assert.Equal(t, "+15551234567", mnemoerr.FieldsOf(enriched)["identifier"])
}

func TestCodeOfPlainAndNil(t *testing.T) {
	assert.Equal(t, mnemoerr.Code(""), mnemoerr.CodeOf(nil))
	assert.Equal(t, mnemoerr.Code(""), mnemoerr.CodeOf(stderrors.New("plain")))
}

func TestCodeOfReturnsInnermostCodedError(t *testing.T) {
	inner := mnemoerr.New(mnemoerr.CodeStoreDatabaseFailure, "db")
	outer := mnemoerr.Wrap(inner, mnemoerr.CodePipelinePhaseFailure, "windowing")
	// oops.AsOops walks to the deepest oops error, so CodeOf returns the innermost code.
	assert.Equal(t, mnemoerr.CodeStoreDatabaseFailure, mnemoerr.CodeOf(outer))
}

func TestClassificationHelpers(t *testing.T) {
	tests := []struct {
		name  string
		code  mnemoerr.Code
		check func(error) bool
	}{
		{"entity not found", mnemoerr.CodeStoreEntityNotFound, mnemoerr.IsNotFound},
		{"source unavailable", mnemoerr.CodeSourceUnavailable, mnemoerr.IsUnavailable},
		{"directory unavailable", mnemoerr.CodeDirectoryUnavailable, mnemoerr.IsUnavailable},
		{"invalid config value", mnemoerr.CodeConfigValidateInvalidValue, mnemoerr.IsInvalidInput},
		{"invalid store input", mnemoerr.CodeStoreInvalidInput, mnemoerr.IsInvalidInput},
		{"summarize failure", mnemoerr.CodeEngineSummarizeFailure, mnemoerr.IsEngineFailure},
		{"classify failure", mnemoerr.CodeEngineClassifyFailure, mnemoerr.IsEngineFailure},
		{"invalid engine response", mnemoerr.CodeEngineResponseInvalid, mnemoerr.IsEngineFailure},
		{"database failure", mnemoerr.CodeStoreDatabaseFailure, mnemoerr.IsStorageFailure},
		{"compact failure", mnemoerr.CodeStoreCompactFailure, mnemoerr.IsStorageFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(mnemoerr.New(tt.code, "boom")))
		})
	}
}

func TestClassificationNegativeCases(t *testing.T) {
	err := mnemoerr.New(mnemoerr.CodeStoreDatabaseFailure, "db error")
	assert.False(t, mnemoerr.IsNotFound(err))
	assert.False(t, mnemoerr.IsUnavailable(err))
	assert.False(t, mnemoerr.IsInvalidInput(err))
	assert.False(t, mnemoerr.IsEngineFailure(err))

	assert.False(t, mnemoerr.IsNotFound(nil))
	assert.False(t, mnemoerr.IsUnavailable(stderrors.New("plain")))
	assert.False(t, mnemoerr.IsStorageFailure(stderrors.New("plain")))
}

func TestErrorIsWithWrappedChain(t *testing.T) {
	sentinel := stderrors.New("root cause")
	mid := fmt.Errorf("mid: %w", sentinel)
	outer := mnemoerr.Wrap(mid, mnemoerr.CodePipelinePhaseFailure, "identity phase")

	assert.ErrorIs(t, outer, sentinel)
}

func TestJoinCombinesErrors(t *testing.T) {
	a := stderrors.New("first")
	b := stderrors.New("second")
	joined := mnemoerr.Join(a, b)

	require.Error(t, joined)
	assert.ErrorIs(t, joined, a)
	assert.ErrorIs(t, joined, b)
	assert.Equal(t, mnemoerr.CodePipelinePhaseFailure, mnemoerr.CodeOf(joined))
}

func TestFieldsWithEmptyKeyAreIgnored(t *testing.T) {
	err := mnemoerr.New(mnemoerr.CodeStoreDatabaseFailure, "oops",
		mnemoerr.Field("", "should-be-dropped"),
		mnemoerr.FieldPhase("ingest"),
	)
	fields := mnemoerr.FieldsOf(err)
	assert.Equal(t, "ingest", fields["phase"])
	assert.NotContains(t, fields, "")
}
