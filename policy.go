package telnet

// supportedOptions lists every option byte this engine has a handler for.
// An unlisted option always gets refused (DONT/WONT).
var supportedOptions = map[byte]bool{
	OptBINARY:     true,
	OptECHO:       true,
	OptSGA:        true,
	OptSTATUS:     true,
	OptTM:         true,
	OptLOGOUT:     true,
	OptTTYPE:      true,
	OptEOR:        true,
	OptNAWS:       true,
	OptTSPEED:     true,
	OptLFLOW:      true,
	OptLINEMODE:   true,
	OptXDISPLOC:   true,
	OptSNDLOC:     true,
	OptNEWENVIRON: true,
	OptCHARSET:    true,
	OptCOMPORT:    true,
	OptMSP:        true,
	OptMXP:        true,
	OptZMP:        true,
	OptAARDWOLF:   true,
	OptMSDP:       true,
	OptMSSP:       true,
	OptATCP:       true,
	OptGMCP:       true,
}

// optionsWithFollowupSB are options whose acceptance implies a
// sub-negotiation exchange still to come (spec §4.E).
var optionsWithFollowupSB = map[byte]bool{
	OptTTYPE:      true,
	OptNEWENVIRON: true,
	OptXDISPLOC:   true,
	OptTSPEED:     true,
	OptCHARSET:    true,
	OptNAWS:       true,
	OptLINEMODE:   true,
	OptSNDLOC:     true,
}

// Policy governs the role-specific refusals and overrides of spec §4.E.
type Policy struct {
	// AlwaysDO overrides the WILL exclusions below: a peer's WILL for an
	// option in this set is accepted even if it's ordinarily refused by role.
	AlwaysDO map[byte]bool
}

// NewPolicy builds a Policy from the option bytes in config.Options.AlwaysDO.
func NewPolicy(alwaysDO []int) Policy {
	set := make(map[byte]bool, len(alwaysDO))
	for _, v := range alwaysDO {
		set[byte(v)] = true
	}
	return Policy{AlwaysDO: set}
}

func (p Policy) known(opt byte) bool {
	return supportedOptions[opt]
}

// willExcluded reports whether a peer's WILL opt is refused outright for
// the given role, per spec §4.E's asymmetric exclusion list.
func (p Policy) willExcluded(role Role, opt byte) bool {
	if p.AlwaysDO[opt] {
		return false
	}
	switch role {
	case RoleServer:
		return opt == OptECHO
	default:
		switch opt {
		case OptNAWS, OptLINEMODE, OptSNDLOC, OptLFLOW, OptSTATUS:
			return true
		}
		return false
	}
}
