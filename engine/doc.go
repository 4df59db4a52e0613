// Package engine is the low-level wazero layer under the game runtime.
//
// # Types
//
//	WazeroEngine   - owns a wazero runtime, WASI and host modules
//	WazeroModule   - a compiled guest module, checked for unresolved imports
//	WazeroInstance - an instantiated module with memory and allocator
//
// # Lowering
//
// Arguments are passed to guest exports following the canonical ABI:
//
//	WIT Type        Core Representation    Flat Count
//	─────────────────────────────────────────────────
//	bool, u32, s32  i32                    1
//	f32             f32                    1
//	string          (ptr, len) as i32×2    2
//	list<string>    (ptr, len) as i32×2    2, elements are (ptr, len) pairs
//
// String and list payloads are copied into guest memory through the
// module's exported allocator. The allocator is looked up as cabi_realloc,
// then the legacy names canonical_abi_realloc, allocate and alloc. The last
// two take only a size.
//
// # Instantiation
//
// Guest modules are treated as reactors: only _initialize runs at
// instantiation. WASI preview1 is provided on demand.
package engine
