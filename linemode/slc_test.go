package linemode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestEntry_MaskRoundTrip(t *testing.T) {
	e := Entry{Level: LevelVariable, Ack: true, FlushIn: true, Value: 0x03}
	decoded := DecodeEntry(e.Mask(), e.Value)
	assert.Equal(t, e, decoded)
}

func TestDefaultTable_IPIsFlushInFlushOut(t *testing.T) {
	tbl := DefaultTable()
	ip := tbl.Get(FuncIP)
	assert.Equal(t, LevelVariable, ip.Level)
	assert.True(t, ip.FlushIn)
	assert.True(t, ip.FlushOut)
	assert.Equal(t, byte(0x03), ip.Value)
}

func TestDefaultTable_SynchUnbound(t *testing.T) {
	tbl := DefaultTable()
	assert.Equal(t, NoSupport(), tbl.Get(FuncSynch))
}

func TestTable_Clone_Independent(t *testing.T) {
	tbl := DefaultTable()
	clone := tbl.Clone()
	clone[FuncIP] = Entry{Level: LevelNoSupport}
	assert.NotEqual(t, tbl[FuncIP], clone[FuncIP])
}

func TestProcess_OutOfRangeFunction(t *testing.T) {
	tbl := DefaultTable()
	outcome := Process(tbl, DefaultTable(), Function(NSLC+1), Entry{})
	assert.True(t, outcome.OutOfRange)
	assert.True(t, outcome.ShouldReply)
	assert.Equal(t, NoSupport(), outcome.Reply)
}

func TestProcess_FuncZeroLevelDefault_RequestsDefaultTab(t *testing.T) {
	outcome := Process(DefaultTable(), DefaultTable(), 0, Entry{Level: LevelDefault})
	assert.True(t, outcome.SendDefaultTab)
	assert.False(t, outcome.SendCurrentTab)
}

func TestProcess_FuncZeroLevelVariable_RequestsCurrentTab(t *testing.T) {
	outcome := Process(DefaultTable(), DefaultTable(), 0, Entry{Level: LevelVariable})
	assert.True(t, outcome.SendCurrentTab)
	assert.False(t, outcome.SendDefaultTab)
}

func TestProcess_IdenticalLevelAndValue_NoChange(t *testing.T) {
	tbl := DefaultTable()
	mine := tbl.Get(FuncIP)
	outcome := Process(tbl, DefaultTable(), FuncIP, Entry{Level: mine.Level, Value: mine.Value})
	assert.False(t, outcome.Changed)
	assert.False(t, outcome.ShouldReply)
}

func TestProcess_SameLevelAckedSetIsIgnored(t *testing.T) {
	tbl := DefaultTable()
	mine := tbl.Get(FuncIP)
	incoming := Entry{Level: mine.Level, Value: 0xff, Ack: true}
	outcome := Process(tbl, DefaultTable(), FuncIP, incoming)
	assert.False(t, outcome.Changed)
}

func TestProcess_AckedMismatch_Ignored(t *testing.T) {
	tbl := DefaultTable()
	incoming := Entry{Level: LevelVariable, Value: 0xaa, Ack: true}
	outcome := Process(tbl, DefaultTable(), FuncIP, incoming)
	assert.False(t, outcome.Changed)
	assert.Equal(t, byte(0x03), tbl.Get(FuncIP).Value)
}

func TestProcess_PeerNoSupport_DegradesAndAcks(t *testing.T) {
	tbl := DefaultTable()
	outcome := Process(tbl, DefaultTable(), FuncIP, Entry{Level: LevelNoSupport})
	assert.True(t, outcome.Changed)
	assert.True(t, outcome.Reply.Ack)
	assert.Equal(t, LevelNoSupport, tbl.Get(FuncIP).Level)
}

func TestProcess_PeerRequestsDefault_UnsupportedFunctionDegrades(t *testing.T) {
	tbl := Table{FuncSynch: {Level: LevelDefault}}
	outcome := Process(tbl, DefaultTable(), FuncSynch, Entry{Level: LevelDefault, Value: 0x01})
	assert.True(t, outcome.Changed)
	assert.Equal(t, LevelNoSupport, tbl.Get(FuncSynch).Level)
}

func TestProcess_PeerRequestsDefault_SupportedFunctionUsesDefaultLevel(t *testing.T) {
	tbl := DefaultTable()
	outcome := Process(tbl, DefaultTable(), FuncIP, Entry{Level: LevelDefault, Value: 0x09})
	assert.True(t, outcome.Changed)
	got := tbl.Get(FuncIP)
	assert.Equal(t, LevelVariable, got.Level)
	assert.Equal(t, byte(0x09), got.Value)
}

func TestProcess_PeerChangesValue_Accepted(t *testing.T) {
	tbl := DefaultTable()
	outcome := Process(tbl, DefaultTable(), FuncEC, Entry{Level: LevelVariable, Value: 0x08})
	assert.True(t, outcome.Changed)
	assert.Equal(t, byte(0x08), tbl.Get(FuncEC).Value)
	assert.True(t, outcome.Reply.Ack)
}

func TestProcess_BothCantChange_DegradesToNoSupport(t *testing.T) {
	tbl := Table{FuncBrk: {Level: LevelCantChange, Value: 0}}
	outcome := Process(tbl, DefaultTable(), FuncBrk, Entry{Level: LevelCantChange, Value: 0x02})
	assert.True(t, outcome.Changed)
	assert.Equal(t, LevelNoSupport, tbl.Get(FuncBrk).Level)
}

func TestForwardmask_BinaryLength32(t *testing.T) {
	mask := Forwardmask(DefaultTable(), true)
	assert.Len(t, mask, 32)
}

func TestForwardmask_NonBinaryLength16(t *testing.T) {
	mask := Forwardmask(DefaultTable(), false)
	assert.Len(t, mask, 16)
}

func TestForwardmask_BitSetForBoundValue(t *testing.T) {
	mask := Forwardmask(DefaultTable(), true)
	v := int(DefaultTable().Get(FuncIP).Value)
	assert.NotZero(t, mask[v/8]&(1<<(7-uint(v%8))))
}

func TestForwardmask_NoSupportFunctionsExcluded(t *testing.T) {
	tbl := Table{FuncBrk: {Level: LevelNoSupport, Value: 0x02}}
	mask := Forwardmask(tbl, true)
	assert.Zero(t, mask[0]&(1<<(7-2)))
}

func TestPropertyProcess_IdempotentOnSameEntry(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		level := Level(rapid.IntRange(0, 3).Draw(t, "level"))
		value := byte(rapid.IntRange(0, 255).Draw(t, "value"))
		f := Function(rapid.IntRange(1, NSLC).Draw(t, "func"))

		tbl := Table{f: {Level: level, Value: value}}
		first := Process(tbl, DefaultTable(), f, Entry{Level: level, Value: value})
		assert.False(t, first.Changed)
	})
}

func TestPropertyForwardmask_NeverExceedsDeclaredLength(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		binary := rapid.Bool().Draw(t, "binary")
		n := rapid.IntRange(0, 8).Draw(t, "n")
		tbl := make(Table, n)
		for i := 0; i < n; i++ {
			f := Function(rapid.IntRange(1, NSLC).Draw(t, "func"))
			v := byte(rapid.IntRange(0, 255).Draw(t, "value"))
			tbl[f] = Entry{Level: LevelVariable, Value: v}
		}
		mask := Forwardmask(tbl, binary)
		if binary {
			assert.Len(t, mask, 32)
		} else {
			assert.Len(t, mask, 16)
		}
	})
}
