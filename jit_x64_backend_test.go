// jit_x64_backend_test.go - tests for the x86-64 backend

package saturn

import "testing"

func TestX64RegisterAllocatorFixedMapping(t *testing.T) {
	a := NewX64RegisterAllocator()
	if a.GetSH2Register(0) != RBX {
		t.Fatalf("R0 -> %v, want RBX", a.GetSH2Register(0))
	}
	if a.GetSH2Register(4) != R15 {
		t.Fatalf("R4 -> %v, want R15", a.GetSH2Register(4))
	}
	if a.IsInRegister(9) {
		t.Fatal("R9 has no fixed native home")
	}
	if a.GetSH2Register(9) != NoReg {
		t.Fatalf("R9 -> %v, want NoReg", a.GetSH2Register(9))
	}
}

func TestX64BackendCompileProducesExecutableCode(t *testing.T) {
	block := &IRBlock{StartAddr: 0x1000, EndAddr: 0x1002}
	block.Add(IRInstruction{Op: IRAdd, Dest: RegOperand(0), Src1: RegOperand(0), Src2: RegOperand(1)}, 1)

	be := NewX64Backend()
	code, err := be.Compile(block)
	if err != nil {
		t.Fatal(err)
	}
	if code.EntryPoint() == 0 {
		t.Fatal("entry point should be non-zero after MakeExecutable")
	}
	// prologue (push rbx: 1 byte, push r12-r15: 2 bytes each) + add r/m64
	// (3 bytes) + epilogue (the same pops + ret: 1 byte)
	if code.Size() < (1+4*2)+3+(1+4*2)+1 {
		t.Fatalf("Size()=%d, too small for prologue+add+epilogue", code.Size())
	}
}

func TestX64BackendFallsBackToTrapForUnmappedRegisters(t *testing.T) {
	block := &IRBlock{StartAddr: 0x2000, EndAddr: 0x2002}
	// R9 has no fixed native home, so this must compile to Int3 rather
	// than emit a bogus ADD into NoReg.
	block.Add(IRInstruction{Op: IRAdd, Dest: RegOperand(9), Src1: RegOperand(9), Src2: RegOperand(9)}, 1)

	be := NewX64Backend()
	code, err := be.Compile(block)
	if err != nil {
		t.Fatal(err)
	}
	if code.Size() == 0 {
		t.Fatal("expected some emitted bytes even for the trap path")
	}
}
