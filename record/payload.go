package record

import (
	"fmt"
	"strings"

	"github.com/flashbots/disco-relay/crypto"
	"github.com/miekg/dns"
)

// DefaultLabel is the label reachability TXT records are published under.
const DefaultLabel = "_iroh"

// DefaultTTL is the DNS TTL, in seconds, for records built by NewTXTMessage.
const DefaultTTL = 30

// EncodePayload packs msg into a record payload.
func EncodePayload(msg *dns.Msg) ([]byte, error) {
	payload, err := msg.Pack()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(payload))
	}
	return payload, nil
}

// DecodePayload unpacks a record payload.
func DecodePayload(payload []byte) (*dns.Msg, error) {
	msg := new(dns.Msg)
	if err := msg.Unpack(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return msg, nil
}

// Origin returns the zone apex of an identity, "<z32>.".
func Origin(pk crypto.PublicKey) string {
	return dns.Fqdn(pk.Z32())
}

// NewTXTMessage builds a response message holding one TXT record per value
// under "<label>.<z32>.".
func NewTXTMessage(pk crypto.PublicKey, label string, ttl uint32, values ...string) *dns.Msg {
	name := Origin(pk)
	if label != "" {
		name = label + "." + name
	}

	msg := new(dns.Msg)
	msg.Response = true
	msg.Authoritative = true
	for _, v := range values {
		msg.Answer = append(msg.Answer, &dns.TXT{
			Hdr: dns.RR_Header{
				Name:   name,
				Rrtype: dns.TypeTXT,
				Class:  dns.ClassINET,
				Ttl:    ttl,
			},
			Txt: []string{v},
		})
	}
	return msg
}

// TXT is a flattened TXT answer.
type TXT struct {
	Name  string
	TTL   uint32
	Value string
}

// TXTRecords returns the TXT answers of msg, with names relative to the
// identity's origin.
func TXTRecords(pk crypto.PublicKey, msg *dns.Msg) []TXT {
	origin := Origin(pk)
	var out []TXT
	for _, rr := range msg.Answer {
		txt, ok := rr.(*dns.TXT)
		if !ok {
			continue
		}
		name := strings.TrimSuffix(strings.TrimSuffix(txt.Hdr.Name, origin), ".")
		if name == "" {
			name = "@"
		}
		out = append(out, TXT{
			Name:  name,
			TTL:   txt.Hdr.Ttl,
			Value: strings.Join(txt.Txt, ""),
		})
	}
	return out
}
