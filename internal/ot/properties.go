package ot

import (
	"github.com/pkg/errors"
)

// TransactionProperties is announced by both parties before a protocol
// instance runs. Any difference aborts the exchange on both sides.
type TransactionProperties struct {
	Protocol    string
	Base        string
	Count       uint64
	Curve       string
	Cipher      string
	Hash        string
	PRG         string
	Security    uint64
	Statistical uint64
}

func newProperties(protocol string, count int, o Options) TransactionProperties {
	// only an extension runs a base OT underneath
	var base string
	if protocol == protocolKOS {
		base = o.Base
	}
	return TransactionProperties{
		Protocol:    protocol,
		Base:        base,
		Count:       uint64(count),
		Curve:       o.Curve,
		Cipher:      o.Cipher,
		Hash:        o.Hash,
		PRG:         o.PRG,
		Security:    uint64(o.Security),
		Statistical: uint64(o.Statistical),
	}
}

// agreeAsSender announces local first, then reads the peer's properties.
func agreeAsSender(ch Channel, local TransactionProperties) error {
	if err := sendRecord(ch, &local); err != nil {
		return err
	}

	var remote TransactionProperties
	if err := recvRecord(ch, &remote); err != nil {
		return err
	}
	return local.match(remote)
}

// agreeAsReceiver reads the peer's properties and answers with local before
// comparing, so that the sender always gets an answer.
func agreeAsReceiver(ch Channel, local TransactionProperties) error {
	var remote TransactionProperties
	if err := recvRecord(ch, &remote); err != nil {
		return err
	}

	if err := sendRecord(ch, &local); err != nil {
		return err
	}
	return local.match(remote)
}

func (p TransactionProperties) match(q TransactionProperties) error {
	switch {
	case p.Protocol != q.Protocol:
		return errors.Wrapf(ErrTransactionMismatch, "protocol %s, peer runs %s", p.Protocol, q.Protocol)
	case p.Base != q.Base:
		return errors.Wrapf(ErrTransactionMismatch, "base OT %s, peer uses %s", p.Base, q.Base)
	case p.Count != q.Count:
		return errors.Wrapf(ErrTransactionMismatch, "%d instances, peer expects %d", p.Count, q.Count)
	case p.Curve != q.Curve:
		return errors.Wrapf(ErrTransactionMismatch, "curve %s, peer uses %s", p.Curve, q.Curve)
	case p.Cipher != q.Cipher:
		return errors.Wrapf(ErrTransactionMismatch, "cipher %s, peer uses %s", p.Cipher, q.Cipher)
	case p.Hash != q.Hash:
		return errors.Wrapf(ErrTransactionMismatch, "hash %s, peer uses %s", p.Hash, q.Hash)
	case p.PRG != q.PRG:
		return errors.Wrapf(ErrTransactionMismatch, "prg %s, peer uses %s", p.PRG, q.PRG)
	case p.Security != q.Security || p.Statistical != q.Statistical:
		return errors.Wrapf(ErrTransactionMismatch, "security (%d, %d), peer uses (%d, %d)",
			p.Security, p.Statistical, q.Security, q.Statistical)
	}
	return nil
}
