package errors

import "strings"

// ErrorCode is a string representation of a specific error condition.  Codes
// are "<MODULE>_<NNN>"; ModuleForCode extracts the prefix for metric labels.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeStorageError       ErrorCode = "COMMON_017"
	ErrCodeMessagingError     ErrorCode = "COMMON_018"
)

// Aliases used by generic helpers.
const (
	CodeOK      = ErrorCode("OK")
	CodeUnknown = ErrorCode("UNKNOWN")
)

// Molecule Module Error Codes
const (
	ErrCodeMoleculeParsingFailed      ErrorCode = "MOL_006"
	ErrCodeMoleculeInvalidFormat      ErrorCode = "MOL_003"
	ErrCodeMoleculeInvalidSMILES      ErrorCode = "MOL_001"
	ErrCodeMoleculeConversionFailed   ErrorCode = "MOL_011"
	ErrCodeMoleculeNeutralization     ErrorCode = "MOL_016"
	ErrCodeMoleculeCanonicalKeyFailed ErrorCode = "MOL_017"
	ErrCodeMoleculeAtomIndex          ErrorCode = "MOL_018"
)

// Standardization Module Error Codes.  These classify rejected records when a
// rejection has to travel as an error, e.g. into a dead-letter header.
const (
	ErrCodeStdNeutralizationFailed  ErrorCode = "STD_001"
	ErrCodeStdOnlyMetalsOrInorganic ErrorCode = "STD_002"
	ErrCodeStdContainsMetal         ErrorCode = "STD_003"
	ErrCodeStdInorganic             ErrorCode = "STD_004"
	ErrCodeStdRecordsFailed         ErrorCode = "STD_005"
)

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "operation timed out",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeStorageError:       "object storage error",
	ErrCodeMessagingError:     "message queue error",

	ErrCodeMoleculeParsingFailed:      "failed to parse molecule",
	ErrCodeMoleculeInvalidFormat:      "unsupported molecule format",
	ErrCodeMoleculeInvalidSMILES:      "invalid SMILES",
	ErrCodeMoleculeConversionFailed:   "molecule format conversion failed",
	ErrCodeMoleculeNeutralization:     "molecule could not be neutralised",
	ErrCodeMoleculeCanonicalKeyFailed: "failed to compute canonical key",
	ErrCodeMoleculeAtomIndex:          "atom index out of range",

	ErrCodeStdNeutralizationFailed:  "Molecule could not be neutralised",
	ErrCodeStdOnlyMetalsOrInorganic: "Molecule contained only metals or inorganic compounds",
	ErrCodeStdContainsMetal:         "Molecule contains metal",
	ErrCodeStdRecordsFailed:         "records failed during a standardization run",
	ErrCodeStdInorganic:             "Molecule is inorganic",
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
