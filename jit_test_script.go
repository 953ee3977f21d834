// jit_test_script.go - Lua-scripted JIT conformance test cases (spec.md
// §4.5 JIT Validator)
//
// The generated suite (jit_test_generator.go) covers every opcode
// mechanically from the specification database. Some regressions are
// easier to pin down by hand — a specific register-aliasing case that bit
// a real game, say — so this hook lets a human extend the suite with a
// small embedded Lua script instead of recompiling Go. The script sets
// a global `tests` table of test definitions; each entry is translated
// into an InstructionTest the same validator runs everything else through.

package saturn

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// LoadLuaTestScript runs the Lua script at path and converts its `tests`
// global into InstructionTest cases.
func LoadLuaTestScript(path string) ([]InstructionTest, error) {
	L := lua.NewState()
	defer L.Close()

	if err := L.DoFile(path); err != nil {
		return nil, fmt.Errorf("jit test script: running %s: %w", path, err)
	}

	v := L.GetGlobal("tests")
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("jit test script: %s does not define a `tests` table", path)
	}

	var out []InstructionTest
	var convErr error
	tbl.ForEach(func(_, entry lua.LValue) {
		if convErr != nil {
			return
		}
		t, ok := entry.(*lua.LTable)
		if !ok {
			convErr = fmt.Errorf("jit test script: non-table entry in `tests`")
			return
		}
		test, err := luaEntryToTest(t)
		if err != nil {
			convErr = err
			return
		}
		out = append(out, test)
	})
	if convErr != nil {
		return nil, convErr
	}
	return out, nil
}

func luaEntryToTest(t *lua.LTable) (InstructionTest, error) {
	name := luaFieldString(t, "name", "unnamed")
	word := uint16(luaFieldNumber(t, "word", 0))
	pc := uint32(luaFieldNumber(t, "pc", 0))

	ctx := &SH2Context{PC: pc}
	regs := t.RawGetString("r")
	if regTbl, ok := regs.(*lua.LTable); ok {
		for i := 0; i < 16; i++ {
			v := regTbl.RawGetInt(i + 1)
			if n, ok := v.(lua.LNumber); ok {
				ctx.R[i] = uint32(int64(n))
			}
		}
	}
	if tb, ok := t.RawGetString("t").(lua.LBool); ok {
		ctx.SetT(bool(tb))
	}

	return InstructionTest{
		Name:    name,
		Initial: ctx,
		Program: []uint16{word},
	}, nil
}

func luaFieldString(t *lua.LTable, field, def string) string {
	v := t.RawGetString(field)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return def
}

func luaFieldNumber(t *lua.LTable, field string, def float64) float64 {
	v := t.RawGetString(field)
	if n, ok := v.(lua.LNumber); ok {
		return float64(n)
	}
	return def
}
