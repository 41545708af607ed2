package tagv

import (
	"encoding/hex"
	"fmt"
)

// AccessRights is a bitflag set describing what the holder of a URef
// may do with the value behind it. Serialized as a single byte.
type AccessRights uint8

const (
	AccessRead  AccessRights = 1
	AccessWrite AccessRights = 2
	AccessAdd   AccessRights = 4

	AccessReadAdd      = AccessRead | AccessAdd
	AccessReadWrite    = AccessRead | AccessWrite
	AccessAddWrite     = AccessAdd | AccessWrite
	AccessReadAddWrite = AccessRead | AccessAdd | AccessWrite

	accessRightsMask = AccessReadAddWrite
)

// IsReadable reports whether the Read flag is set.
func (r AccessRights) IsReadable() bool { return r&AccessRead != 0 }

// IsWriteable reports whether the Write flag is set.
func (r AccessRights) IsWriteable() bool { return r&AccessWrite != 0 }

// IsAddable reports whether the Add flag is set.
func (r AccessRights) IsAddable() bool { return r&AccessAdd != 0 }

func (r AccessRights) String() string {
	switch r {
	case AccessRead:
		return "READ"
	case AccessWrite:
		return "WRITE"
	case AccessAdd:
		return "ADD"
	case AccessReadAdd:
		return "READ_ADD"
	case AccessReadWrite:
		return "READ_WRITE"
	case AccessAddWrite:
		return "ADD_WRITE"
	case AccessReadAddWrite:
		return "READ_ADD_WRITE"
	default:
		return "UNKNOWN"
	}
}

func accessRightsFromName(s string) (AccessRights, error) {
	for _, r := range []AccessRights{
		AccessRead, AccessWrite, AccessAdd,
		AccessReadAdd, AccessReadWrite, AccessAddWrite, AccessReadAddWrite,
	} {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown access rights %q", s)
}

// AddrLen is the byte length of key and URef addresses.
const AddrLen = 32

// URef is an unforgeable reference into global state: a 32-byte address
// plus optional access rights. A nil Rights means the reference carries
// no rights component.
type URef struct {
	Addr   [AddrLen]byte
	Rights *AccessRights
}

// NewURef builds a URef carrying the given access rights.
func NewURef(addr [AddrLen]byte, rights AccessRights) URef {
	return URef{Addr: addr, Rights: &rights}
}

func (u URef) String() string {
	if u.Rights == nil {
		return fmt.Sprintf("uref:%s", hex.EncodeToString(u.Addr[:]))
	}
	return fmt.Sprintf("uref:%s:%s", hex.EncodeToString(u.Addr[:]), *u.Rights)
}

// appendURef appends the canonical URef encoding: the address bytes
// followed by an option flag and, when present, the rights byte.
func appendURef(dst []byte, u URef) []byte {
	dst = append(dst, u.Addr[:]...)
	if u.Rights == nil {
		return append(dst, optionAbsent)
	}
	dst = append(dst, optionPresent, byte(*u.Rights))
	return dst
}

func urefEncodedLen(u URef) int {
	if u.Rights == nil {
		return AddrLen + 1
	}
	return AddrLen + 2
}

// decodeURef reads a canonical URef encoding and returns the reference
// and bytes consumed.
func decodeURef(b []byte) (URef, int, error) {
	if len(b) < AddrLen+1 {
		return URef{}, 0, fmt.Errorf("uref needs %d bytes: %w", AddrLen+1, ErrTruncated)
	}
	var u URef
	copy(u.Addr[:], b[:AddrLen])
	switch b[AddrLen] {
	case optionAbsent:
		return u, AddrLen + 1, nil
	case optionPresent:
		if len(b) < AddrLen+2 {
			return URef{}, 0, fmt.Errorf("uref access rights byte missing: %w", ErrTruncated)
		}
		r := AccessRights(b[AddrLen+1])
		if r&^accessRightsMask != 0 {
			return URef{}, 0, fmt.Errorf("unknown access rights bits 0b%b", uint8(r))
		}
		u.Rights = &r
		return u, AddrLen + 2, nil
	default:
		return URef{}, 0, fmt.Errorf("invalid uref rights flag %d", b[AddrLen])
	}
}

// KeyKind discriminates Key variants. Kind values are part of the wire
// contract.
type KeyKind uint8

const (
	KeyAccount KeyKind = 0
	KeyHash    KeyKind = 1
	KeyURef    KeyKind = 2
	KeyLocal   KeyKind = 3
)

func (k KeyKind) String() string {
	switch k {
	case KeyAccount:
		return "account"
	case KeyHash:
		return "hash"
	case KeyURef:
		return "uref"
	case KeyLocal:
		return "local"
	default:
		return fmt.Sprintf("key-kind(%d)", uint8(k))
	}
}

// Key is a global-state key: an account, a hash, a URef or a local key.
// Account, Hash and Local hold a 32-byte address in Addr; URef keys
// hold the reference in Ref.
type Key struct {
	Kind KeyKind
	Addr [AddrLen]byte
	Ref  URef
}

// AccountKey builds an account-variant key.
func AccountKey(addr [AddrLen]byte) Key { return Key{Kind: KeyAccount, Addr: addr} }

// HashKey builds a hash-variant key.
func HashKey(addr [AddrLen]byte) Key { return Key{Kind: KeyHash, Addr: addr} }

// URefKey wraps an unforgeable reference as a key.
func URefKey(u URef) Key { return Key{Kind: KeyURef, Ref: u} }

// LocalKey builds a local-variant key.
func LocalKey(addr [AddrLen]byte) Key { return Key{Kind: KeyLocal, Addr: addr} }

func (k Key) String() string {
	if k.Kind == KeyURef {
		return k.Ref.String()
	}
	return fmt.Sprintf("%s:%s", k.Kind, hex.EncodeToString(k.Addr[:]))
}

// appendKey appends the canonical Key encoding: the kind byte followed
// by the variant payload.
func appendKey(dst []byte, k Key) []byte {
	dst = append(dst, byte(k.Kind))
	if k.Kind == KeyURef {
		return appendURef(dst, k.Ref)
	}
	return append(dst, k.Addr[:]...)
}

func keyEncodedLen(k Key) int {
	if k.Kind == KeyURef {
		return 1 + urefEncodedLen(k.Ref)
	}
	return 1 + AddrLen
}

// decodeKey reads a canonical Key encoding and returns the key and
// bytes consumed. Unknown kind bytes are rejected.
func decodeKey(b []byte) (Key, int, error) {
	if len(b) < 1 {
		return Key{}, 0, fmt.Errorf("key kind byte missing: %w", ErrTruncated)
	}
	kind := KeyKind(b[0])
	switch kind {
	case KeyAccount, KeyHash, KeyLocal:
		if len(b) < 1+AddrLen {
			return Key{}, 0, fmt.Errorf("%s key needs %d address bytes: %w", kind, AddrLen, ErrTruncated)
		}
		k := Key{Kind: kind}
		copy(k.Addr[:], b[1:1+AddrLen])
		return k, 1 + AddrLen, nil
	case KeyURef:
		u, n, err := decodeURef(b[1:])
		if err != nil {
			return Key{}, 0, err
		}
		return Key{Kind: KeyURef, Ref: u}, 1 + n, nil
	default:
		return Key{}, 0, fmt.Errorf("unknown key kind %d", b[0])
	}
}
