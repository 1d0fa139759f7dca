// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package main

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlapSafeSkipsWhileRunning(t *testing.T) {
	var runs atomic.Int32
	block := make(chan struct{})

	job := overlapSafe(func() {
		runs.Add(1)
		<-block
	})

	done := make(chan struct{})
	go func() {
		job.Run()
		close(done)
	}()

	require.Eventually(t, func() bool { return runs.Load() == 1 },
		time.Second, 5*time.Millisecond, "first firing starts")

	// Second firing while the first is still in flight must not run the job.
	job.Run()
	assert.Equal(t, int32(1), runs.Load(), "overlapping firing skipped")

	close(block)
	<-done

	job.Run()
	assert.Equal(t, int32(2), runs.Load(), "next firing runs once the previous pass finished")
}
