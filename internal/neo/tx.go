package neo

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/big"

	"golang.org/x/crypto/ripemd160"
)

// gasTokenHash is the native GAS contract script hash, big-endian as printed
// by the node.
const gasTokenHash = "d2a4cff31913016155e38e474a2c06d08be276cf"

// addressVersion is the base58check version byte for N3 addresses.
const addressVersion = 0x35

// NeoVM opcodes used by the transfer script and the single-sig
// verification script.
const (
	opPushInt8   = 0x00
	opPushInt16  = 0x01
	opPushInt32  = 0x02
	opPushInt64  = 0x03
	opPushNull   = 0x0b
	opPushData1  = 0x0c
	opPush0      = 0x10
	opPack       = 0xc0
	opAssert     = 0x39
	opSyscall    = 0x41
)

// Interop hashes, little-endian operand order on the wire.
var (
	syscallContractCall = []byte{0x62, 0x7d, 0x5b, 0x52}
	syscallCheckSig     = []byte{0x56, 0xe7, 0xb3, 0x27}
)

// signerScopeCalledByEntry restricts the witness to the entry script.
const signerScopeCalledByEntry = 0x01

// Transaction is an N3 transaction with a single signer.
type Transaction struct {
	Nonce           uint32
	SystemFee       int64
	NetworkFee      int64
	ValidUntilBlock uint32
	Sender          [20]byte // little-endian script hash
	Script          []byte

	// Filled in by Sign.
	InvocationScript   []byte
	VerificationScript []byte
}

// transferScript builds the NEP-17 GAS transfer invocation: arguments pushed
// in reverse, packed, then System.Contract.Call on the token contract.
func transferScript(from, to [20]byte, amount *big.Int) ([]byte, error) {
	contract, err := reverseHexHash(gasTokenHash)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte(opPushNull) // data argument
	if err := pushInteger(&buf, amount); err != nil {
		return nil, err
	}
	pushBytes(&buf, to[:])
	pushBytes(&buf, from[:])
	buf.WriteByte(opPush0 + 4) // argument count
	buf.WriteByte(opPack)
	buf.WriteByte(opPush0 + 15) // CallFlags.All
	pushBytes(&buf, []byte("transfer"))
	pushBytes(&buf, contract[:])
	buf.WriteByte(opSyscall)
	buf.Write(syscallContractCall)
	buf.WriteByte(opAssert) // transfer must return true
	return buf.Bytes(), nil
}

// verificationScript is the canonical single-signature check for a
// compressed P-256 public key.
func verificationScript(pubKey []byte) []byte {
	var buf bytes.Buffer
	buf.WriteByte(opPushData1)
	buf.WriteByte(byte(len(pubKey)))
	buf.Write(pubKey)
	buf.WriteByte(opSyscall)
	buf.Write(syscallCheckSig)
	return buf.Bytes()
}

// scriptHash computes ripemd160(sha256(script)), returned little-endian as
// used inside transactions.
func scriptHash(script []byte) [20]byte {
	inner := sha256.Sum256(script)
	h := ripemd160.New()
	h.Write(inner[:])
	var out [20]byte
	copy(out[:], h.Sum(nil))
	return out
}

// serialize writes the transaction wire form. Witnesses are appended only
// when signed is set; the unsigned form is what gets hashed and fee-priced.
func (t *Transaction) serialize(signed bool) []byte {
	var buf bytes.Buffer
	buf.WriteByte(0) // version
	writeUint32(&buf, t.Nonce)
	writeUint64(&buf, uint64(t.SystemFee))
	writeUint64(&buf, uint64(t.NetworkFee))
	writeUint32(&buf, t.ValidUntilBlock)

	writeVarInt(&buf, 1) // signers
	buf.Write(t.Sender[:])
	buf.WriteByte(signerScopeCalledByEntry)

	writeVarInt(&buf, 0) // attributes
	writeVarBytes(&buf, t.Script)

	if signed {
		writeVarInt(&buf, 1) // witnesses
		writeVarBytes(&buf, t.InvocationScript)
		writeVarBytes(&buf, t.VerificationScript)
	}
	return buf.Bytes()
}

// Unsigned returns the wire form without witnesses.
func (t *Transaction) Unsigned() []byte {
	return t.serialize(false)
}

// Signed returns the full wire form for broadcasting.
func (t *Transaction) Signed() []byte {
	return t.serialize(true)
}

// Hash is the transaction id: sha256 of the unsigned wire form, printed
// big-endian with the 0x prefix the node uses.
func (t *Transaction) Hash() string {
	sum := sha256.Sum256(t.Unsigned())
	for i, j := 0, len(sum)-1; i < j; i, j = i+1, j-1 {
		sum[i], sum[j] = sum[j], sum[i]
	}
	return fmt.Sprintf("0x%x", sum[:])
}

// Sign computes the witness over magic||sha256(unsigned) with the P-256 key
// and attaches it.
func (t *Transaction) Sign(key *ecdsa.PrivateKey, networkMagic uint32) error {
	unsignedHash := sha256.Sum256(t.Unsigned())

	var signData bytes.Buffer
	writeUint32(&signData, networkMagic)
	signData.Write(unsignedHash[:])

	digest := sha256.Sum256(signData.Bytes())
	r, s, err := ecdsa.Sign(rand.Reader, key, digest[:])
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig := make([]byte, 64)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:])

	var invocation bytes.Buffer
	invocation.WriteByte(opPushData1)
	invocation.WriteByte(64)
	invocation.Write(sig)

	t.InvocationScript = invocation.Bytes()
	t.VerificationScript = verificationScript(compressPubKey(&key.PublicKey))
	return nil
}

// compressPubKey returns the 33-byte SEC1 compressed point.
func compressPubKey(pub *ecdsa.PublicKey) []byte {
	return elliptic.MarshalCompressed(pub.Curve, pub.X, pub.Y)
}

// dummyWitness attaches a zero signature witness so the node can price the
// verification cost before the real signature exists.
func (t *Transaction) dummyWitness(pubKey []byte) {
	invocation := make([]byte, 2+64)
	invocation[0] = opPushData1
	invocation[1] = 64
	t.InvocationScript = invocation
	t.VerificationScript = verificationScript(pubKey)
}

func pushBytes(buf *bytes.Buffer, data []byte) {
	buf.WriteByte(opPushData1)
	buf.WriteByte(byte(len(data)))
	buf.Write(data)
}

// pushInteger emits the smallest integer push for a non-negative amount.
func pushInteger(buf *bytes.Buffer, n *big.Int) error {
	if n.Sign() < 0 {
		return fmt.Errorf("negative amount %s", n)
	}
	if n.IsInt64() && n.Int64() <= 16 {
		buf.WriteByte(byte(opPush0 + n.Int64()))
		return nil
	}
	if !n.IsInt64() {
		return fmt.Errorf("amount out of range: %s", n)
	}
	v := n.Int64()
	switch {
	case v <= 0x7f:
		buf.WriteByte(opPushInt8)
		buf.WriteByte(byte(v))
	case v <= 0x7fff:
		buf.WriteByte(opPushInt16)
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(v))
		buf.Write(b[:])
	case v <= 0x7fffffff:
		buf.WriteByte(opPushInt32)
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v))
		buf.Write(b[:])
	default:
		buf.WriteByte(opPushInt64)
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(v))
		buf.Write(b[:])
	}
	return nil
}

// reverseHexHash parses a big-endian printed script hash into the
// little-endian form used on the wire.
func reverseHexHash(s string) ([20]byte, error) {
	var out [20]byte
	if len(s) != 40 {
		return out, fmt.Errorf("script hash must be 20 bytes, got %q", s)
	}
	for i := 0; i < 20; i++ {
		var b byte
		if _, err := fmt.Sscanf(s[i*2:i*2+2], "%02x", &b); err != nil {
			return out, fmt.Errorf("invalid script hash %q: %w", s, err)
		}
		out[19-i] = b
	}
	return out, nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeVarInt(buf *bytes.Buffer, v uint64) {
	switch {
	case v < 0xfd:
		buf.WriteByte(byte(v))
	case v <= 0xffff:
		buf.WriteByte(0xfd)
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(v))
		buf.Write(b[:])
	default:
		buf.WriteByte(0xfe)
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v))
		buf.Write(b[:])
	}
}

func writeVarBytes(buf *bytes.Buffer, data []byte) {
	writeVarInt(buf, uint64(len(data)))
	buf.Write(data)
}
