// sh2_spec_test.go - tests for the SH-2 instruction specification database

package saturn

import "testing"

func TestSH2SpecAtMostOneMatchPerWord(t *testing.T) {
	for w := 0; w < 0x10000; w++ {
		count := 0
		for _, s := range sh2SpecDB {
			if s.Matches(uint16(w)) {
				count++
			}
		}
		if count > 1 {
			t.Fatalf("word %#04x matched %d specs, want at most 1", w, count)
		}
	}
}

func TestSH2SpecDecodeADD(t *testing.T) {
	s := SH2SpecDecode(0x312C) // ADD R2,R1
	if s == nil || s.Mnemonic != "ADD" || s.Syntax != "ADD Rm,Rn" {
		t.Fatalf("got %+v, want ADD Rm,Rn", s)
	}
	if s.ExtractRn(0x312C) != 1 || s.ExtractRm(0x312C) != 2 {
		t.Fatalf("Rn=%d Rm=%d, want Rn=1 Rm=2", s.ExtractRn(0x312C), s.ExtractRm(0x312C))
	}
}

func TestSH2SpecDecodeUnknownReturnsNil(t *testing.T) {
	// 0xFFFF is not assigned in this representative subset.
	if got := SH2SpecDecode(0xFFFF); got != nil {
		t.Fatalf("got %+v, want nil", got)
	}
}

func TestSH2SpecExtractImmSignExtends8Bit(t *testing.T) {
	s := SH2SpecByMnemonic("ADD")[1] // "ADD #imm,Rn"
	if s.Syntax != "ADD #imm,Rn" {
		t.Fatalf("wrong spec row: %s", s.Syntax)
	}
	// 0x70FF = ADD #-1, R0
	if got := s.ExtractImm(0x70FF); got != -1 {
		t.Fatalf("got %d want -1", got)
	}
}

func TestSH2SpecByCategoryNonEmpty(t *testing.T) {
	for _, cat := range []string{"Arithmetic", "Logic", "Shift", "Compare", "Branch", "DataTransfer", "System"} {
		if len(SH2SpecByCategory(cat)) == 0 {
			t.Fatalf("category %q has no specs", cat)
		}
	}
}
