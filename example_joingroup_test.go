// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package ctk_test

import (
	"context"
	"fmt"
	"time"

	"github.com/petenewcomb/ctk-go"
)

// Demonstrates fan-out/fan-in with a [ctk.JoinGroup]: each worker is
// bracketed by Enter and Leave, and the caller blocks in Wait until the group
// is quiescent.
//
//nolint:errcheck
func Example_joinGroup() {
	var g ctk.JoinGroup

	for i := range 3 {
		g.Enter()
		go func() {
			time.Sleep(time.Duration(i+1) * 10 * time.Millisecond)
			g.Leave()
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if ok, _ := g.Wait(ctx); ok {
		fmt.Println("all workers finished")
	}

	// Output:
	// all workers finished
}
