// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Pooled assemblers for high-churn callers.
//
// PERFORMANCE OPTIMIZATIONS:
// - Assembler pooling reuses the pending buffer and answer builder
// - Avoids one allocation set per request in the streaming hot path

package assembler

import "sync"

// assemblerPool reuses Assembler instances across streams. Each
// instance keeps its pending buffer and strings.Builder capacity.
var assemblerPool = sync.Pool{
	New: func() interface{} {
		return New()
	},
}

// Get retrieves a reset Assembler from the pool.
// CRITICAL: Caller MUST call Put() when done to return it.
//
// Usage:
//
//	asm := assembler.Get()
//	defer assembler.Put(asm)
func Get() *Assembler {
	asm := assemblerPool.Get().(*Assembler)
	asm.Reset()
	return asm
}

// Put returns an Assembler to the pool for reuse.
func Put(asm *Assembler) {
	assemblerPool.Put(asm)
}
