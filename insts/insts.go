// Package insts provides the micro-op definitions consumed by the
// out-of-order timing model.
//
// A trace is a sequence of static micro-ops (Instruction) with architectural
// register operands, a memory address for loads and stores, and the resolved
// outcome of every branch. The timing model wraps each fetched micro-op in a
// DynInst that carries its renamed physical registers and pipeline state.
//
// Usage:
//
//	trace, err := insts.ParseTrace(f)
//	if err != nil {
//		return err
//	}
//	fmt.Printf("Op: %v, Dst: %d, Srcs: %v\n", trace[0].Op, trace[0].Dst, trace[0].Srcs)
package insts
