package dbt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Write serializes b to its fixed binary layout: magic, total size,
// timestamp, local/remote address+type, security level, I/O capability,
// init/resp key masks, then each present key in the fixed order
// EncKey/IDKey/SignKey/LinkKey for the init side followed by
// EncKey/IDKey/SignKey for the resp side — a variable-length tail in a
// fixed order. No responder link key is written (or read back by
// ReadSMPKeyBin), even if RespKeys has its LinkKey bit set. There is no separate version
// octet: the magic itself encodes the version (spec.md §3). The size
// field is the total record length, magic and size fields included, so
// Read can validate the file wasn't truncated without needing a
// checksum.
func (b *SMPKeyBin) Write(w io.Writer) error {
	if !b.IsValid() {
		return fmt.Errorf("dbt: %w: refusing to write SMPKeyBin with no key material", errInvalidParams)
	}
	var body bytes.Buffer
	binary.Write(&body, binary.LittleEndian, b.Timestamp)
	writeAddr(&body, b.LocalAddress)
	writeAddr(&body, b.RemoteAddress)
	body.WriteByte(byte(b.Level))
	body.WriteByte(byte(b.IOCap))
	body.WriteByte(byte(b.InitKeys))
	body.WriteByte(byte(b.RespKeys))

	if b.InitKeys.Has(SMPKeyTypeEncKey) {
		writeLTK(&body, b.LTK)
	}
	if b.InitKeys.Has(SMPKeyTypeIDKey) {
		writeIRK(&body, b.IRK)
	}
	if b.InitKeys.Has(SMPKeyTypeSignKey) {
		writeCSRK(&body, b.CSRK)
	}
	if b.InitKeys.Has(SMPKeyTypeLinkKey) {
		writeLK(&body, b.LK)
	}

	if b.RespKeys.Has(SMPKeyTypeEncKey) {
		writeLTK(&body, b.RemoteLTK)
	}
	if b.RespKeys.Has(SMPKeyTypeIDKey) {
		writeIRK(&body, b.RemoteIRK)
	}
	if b.RespKeys.Has(SMPKeyTypeSignKey) {
		writeCSRK(&body, b.RemoteCSRK)
	}

	if err := binary.Write(w, binary.LittleEndian, smpKeyBinMagic); err != nil {
		return err
	}
	const magicAndSizeLen = 4
	size := uint16(magicAndSizeLen + body.Len())
	if err := binary.Write(w, binary.LittleEndian, size); err != nil {
		return err
	}
	_, err := w.Write(body.Bytes())
	return err
}

func writeAddr(w *bytes.Buffer, a BDAddressAndType) {
	bts := a.Address.Bytes()
	w.Write(bts[:])
	w.WriteByte(byte(a.Type))
}

// writeLTK emits the 28-octet LTK layout, spec.md §3: property bits, key
// size, EDIV, RAND, LTK.
func writeLTK(w *bytes.Buffer, k *LongTermKey) {
	w.WriteByte(byte(k.Properties))
	w.WriteByte(k.KeySize)
	binary.Write(w, binary.LittleEndian, k.EDIV)
	binary.Write(w, binary.LittleEndian, k.Rand)
	w.Write(k.Key[:])
}

// writeIRK emits the 17-octet IRK layout, spec.md §3: responder flag
// plus 16-octet key.
func writeIRK(w *bytes.Buffer, k *IdentityResolvingKey) {
	w.WriteByte(byte(k.Flag))
	w.Write(k.Key[:])
}

// writeCSRK emits the 17-octet CSRK layout, spec.md §3: responder flag
// plus 16-octet key.
func writeCSRK(w *bytes.Buffer, k *ConnectionSignatureResolvingKey) {
	w.WriteByte(byte(k.Flag))
	w.Write(k.Key[:])
}

// writeLK emits the 19-octet LK layout, spec.md §3: responder flag,
// 16-octet key, PIN length, link-key type.
func writeLK(w *bytes.Buffer, k *LinkKey) {
	w.WriteByte(byte(k.Flag))
	w.Write(k.Key[:])
	w.WriteByte(k.PINLength)
	w.WriteByte(k.Type)
}

// ReadSMPKeyBin parses the layout written by Write, rejecting unknown
// magic/version or truncated bodies rather than attempting a best-effort
// partial parse — spec.md §8 requires malformed files to be rejected,
// not silently misread.
func ReadSMPKeyBin(r io.Reader) (*SMPKeyBin, error) {
	var magic uint16
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("dbt: reading SMPKeyBin magic: %w", err)
	}
	if magic != smpKeyBinMagic {
		return nil, fmt.Errorf("dbt: %w: bad SMPKeyBin magic %04x", errInvalidParams, magic)
	}
	var size uint16
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, fmt.Errorf("dbt: reading SMPKeyBin size: %w", err)
	}
	const magicAndSizeLen = 4
	if size < magicAndSizeLen {
		return nil, fmt.Errorf("dbt: %w: SMPKeyBin size %d smaller than header", errInvalidParams, size)
	}
	body := make([]byte, size-magicAndSizeLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("dbt: %w: truncated SMPKeyBin body: %v", errInvalidParams, err)
	}
	br := bytes.NewReader(body)

	b := &SMPKeyBin{Version: smpKeyBinVersion}
	if err := binary.Read(br, binary.LittleEndian, &b.Timestamp); err != nil {
		return nil, err
	}
	var err error
	if b.LocalAddress, err = readAddr(br); err != nil {
		return nil, err
	}
	if b.RemoteAddress, err = readAddr(br); err != nil {
		return nil, err
	}
	lvl, err := br.ReadByte()
	if err != nil {
		return nil, err
	}
	b.Level = SecurityLevel(lvl)
	ioCap, err := br.ReadByte()
	if err != nil {
		return nil, err
	}
	b.IOCap = IOCapability(ioCap)
	initKeys, err := br.ReadByte()
	if err != nil {
		return nil, err
	}
	b.InitKeys = SMPKeyType(initKeys)
	respKeys, err := br.ReadByte()
	if err != nil {
		return nil, err
	}
	b.RespKeys = SMPKeyType(respKeys)

	if b.InitKeys.Has(SMPKeyTypeEncKey) {
		if b.LTK, err = readLTK(br); err != nil {
			return nil, err
		}
	}
	if b.InitKeys.Has(SMPKeyTypeIDKey) {
		if b.IRK, err = readIRK(br); err != nil {
			return nil, err
		}
	}
	if b.InitKeys.Has(SMPKeyTypeSignKey) {
		if b.CSRK, err = readCSRK(br); err != nil {
			return nil, err
		}
	}
	if b.InitKeys.Has(SMPKeyTypeLinkKey) {
		if b.LK, err = readLK(br); err != nil {
			return nil, err
		}
	}
	if b.RespKeys.Has(SMPKeyTypeEncKey) {
		if b.RemoteLTK, err = readLTK(br); err != nil {
			return nil, err
		}
	}
	if b.RespKeys.Has(SMPKeyTypeIDKey) {
		if b.RemoteIRK, err = readIRK(br); err != nil {
			return nil, err
		}
	}
	if b.RespKeys.Has(SMPKeyTypeSignKey) {
		if b.RemoteCSRK, err = readCSRK(br); err != nil {
			return nil, err
		}
	}

	if br.Len() != 0 {
		return nil, fmt.Errorf("dbt: %w: %d trailing bytes in SMPKeyBin", errInvalidParams, br.Len())
	}
	return b, nil
}

func readAddr(r *bytes.Reader) (BDAddressAndType, error) {
	buf := make([]byte, EUI48Length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return BDAddressAndType{}, err
	}
	addr, err := NewEUI48FromBytes(buf)
	if err != nil {
		return BDAddressAndType{}, err
	}
	t, err := r.ReadByte()
	if err != nil {
		return BDAddressAndType{}, err
	}
	return BDAddressAndType{Address: addr, Type: AddressType(t)}, nil
}

func readLTK(r *bytes.Reader) (*LongTermKey, error) {
	k := &LongTermKey{}
	prop, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	k.Properties = LTKProperty(prop)
	sz, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	k.KeySize = sz
	if err := binary.Read(r, binary.LittleEndian, &k.EDIV); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &k.Rand); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, k.Key[:]); err != nil {
		return nil, err
	}
	return k, nil
}

func readIRK(r *bytes.Reader) (*IdentityResolvingKey, error) {
	k := &IdentityResolvingKey{}
	flag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	k.Flag = SMPKeyFlag(flag)
	if _, err := io.ReadFull(r, k.Key[:]); err != nil {
		return nil, err
	}
	return k, nil
}

func readCSRK(r *bytes.Reader) (*ConnectionSignatureResolvingKey, error) {
	k := &ConnectionSignatureResolvingKey{}
	flag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	k.Flag = SMPKeyFlag(flag)
	if _, err := io.ReadFull(r, k.Key[:]); err != nil {
		return nil, err
	}
	return k, nil
}

func readLK(r *bytes.Reader) (*LinkKey, error) {
	k := &LinkKey{}
	flag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	k.Flag = SMPKeyFlag(flag)
	if _, err := io.ReadFull(r, k.Key[:]); err != nil {
		return nil, err
	}
	pin, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	k.PINLength = pin
	t, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	k.Type = t
	return k, nil
}

// FileName returns the canonical on-disk file name for this key record:
// bd_<local-hex>_<remote-hex><remote-type-digit>.key, per spec.md §4.2.
func (b *SMPKeyBin) FileName() string {
	local := compactHex(b.LocalAddress.Address)
	remote := compactHex(b.RemoteAddress.Address)
	return fmt.Sprintf("bd_%s_%s%d.key", local, remote, int(b.RemoteAddress.Type))
}

func compactHex(a EUI48) string {
	bts := a.Bytes()
	return fmt.Sprintf("%02x%02x%02x%02x%02x%02x", bts[5], bts[4], bts[3], bts[2], bts[1], bts[0])
}

// WriteToDir writes b under dir using its canonical FileName. Per
// spec.md §4.2's write(path, overwrite), it refuses to clobber an
// existing file unless overwrite is true.
func (b *SMPKeyBin) WriteToDir(dir string, overwrite bool) error {
	path := filepath.Join(dir, b.FileName())
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		if !overwrite && os.IsExist(err) {
			return fmt.Errorf("dbt: %w: %s already exists and overwrite is false", errInvalidParams, path)
		}
		return err
	}
	defer f.Close()
	return b.Write(f)
}

// ReadSMPKeyBinFile reads a key record previously written by WriteToDir.
func ReadSMPKeyBinFile(path string) (*SMPKeyBin, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSMPKeyBin(f)
}
