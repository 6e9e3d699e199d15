package rcopy

const (
	DEFAULT_PORT = 30000

	// Field widths of a request on the wire, in order.
	KIND_LEN        = 4
	MAX_PATH        = 128
	MODE_LEN        = 4
	FINGERPRINT_LEN = 81 // Only the fingerprinter's leading bytes are meaningful
	SIZE_LEN        = 4
	REQUEST_LEN     = KIND_LEN + MAX_PATH + MODE_LEN + FINGERPRINT_LEN + SIZE_LEN

	VERDICT_LEN = 4

	// Default transfer unit for file content
	CHUNK_SIZE = 256

	// Default cap of concurrent transfer workers per client
	MAX_TRANSFERS = 16
)

// Kind of a request
type Kind uint32

const (
	KindFile     Kind = 1
	KindDir      Kind = 2
	KindTransfer Kind = 3
)

func (k Kind) Valid() bool {
	return k == KindFile || k == KindDir || k == KindTransfer
}

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindTransfer:
		return "transfer"
	}
	return "unknown"
}

// Server's answer to a request
type Verdict uint32

const (
	Identical     Verdict = 0
	NeedsTransfer Verdict = 1
	Error         Verdict = 2
)

func (v Verdict) Valid() bool {
	return v <= Error
}

func (v Verdict) String() string {
	switch v {
	case Identical:
		return "identical"
	case NeedsTransfer:
		return "needs-transfer"
	case Error:
		return "error"
	}
	return "unknown"
}
