package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Verification findings.
	VerifyInfo                 Code = 3000
	VerifyUseAfterConsume      Code = 3001
	VerifyConflictingJoin      Code = 3002
	VerifyBorrowEscape         Code = 3003
	VerifyIsolationBorrow      Code = 3004
	VerifyUnsupportedConstruct Code = 3005
	VerifyRedundantBorrow      Code = 3006

	// I/O and decoding.
	IOLoadUnitError  Code = 4001
	IOBadUnitPayload Code = 4002
)

var codeDescription = map[Code]string{
	UnknownCode:                "Unknown error",
	VerifyInfo:                 "Verification information",
	VerifyUseAfterConsume:      "use of a consumed or undefined value",
	VerifyConflictingJoin:      "control-flow paths disagree about ownership state",
	VerifyBorrowEscape:         "borrowed value captured by an escaping closure",
	VerifyIsolationBorrow:      "borrow crosses its isolation domain before its scope closes",
	VerifyUnsupportedConstruct: "IR construct not recognized by the verifier",
	VerifyRedundantBorrow:      "borrow is never used before its scope closes",
	IOLoadUnitError:            "I/O load unit error",
	IOBadUnitPayload:           "unit payload is not decodable",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("VER%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
