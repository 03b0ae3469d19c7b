package wipclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wip-client/wip/pkg/wiperrors"
	"github.com/wip-client/wip/pkg/wipauth"
	"github.com/wip-client/wip/pkg/wipproto"
)

// dayOfWeek returns the protocol's day field: 0=Sunday .. 6=Saturday, for
// the current time in UTC.
func dayOfWeek(t time.Time) uint8 {
	return uint8(t.UTC().Weekday())
}

// newRequestHeader fills in the fields every request shares: version, a
// freshly minted packet_id, the current timestamp and day, and — per the
// given role's auth settings — the request-auth flag/extension and a
// request for an authenticated response.
func (c *Client) newRequestHeader(ptype wipproto.PacketType, areaCode uint32, auth RoleAuth) (wipproto.Header, []wipproto.ExtendedField, error) {
	now := time.Now()
	h := wipproto.Header{
		Version:   1,
		PacketID:  c.idgen.Next(),
		Type:      ptype,
		Day:       dayOfWeek(now),
		Timestamp: uint64(now.Unix()),
		AreaCode:  areaCode,
	}

	var extensions []wipproto.ExtendedField
	if auth.Enabled && auth.Passphrase != "" {
		h.FlagRequestAuth = true
		mac, err := wipauth.ComputeHash(c.opts.AuthAlgorithm, h.PacketID, h.Timestamp, auth.Passphrase)
		if err != nil {
			return wipproto.Header{}, nil, err
		}
		extensions = append(extensions, wipproto.NewAuthHashField(mac))
	}
	if c.opts.VerifyResponseAuth {
		h.FlagResponseAuth = true
	}
	return h, extensions, nil
}

// verifyResponseAuth checks the AuthHash extension on a response. A
// response carries its hash by setting flag_request_auth on itself (the
// same bit a request uses to mean "this packet has an AuthHash
// extension attached") — flag_response_auth only ever appears on the
// request that asked for the authenticated response in the first place.
// A response that comes back without the extension, or with a digest
// that does not verify, is ErrAuthFailure: verification fails closed.
func verifyResponseAuth(algo wipauth.Algorithm, passphrase string, p wipproto.Packet) error {
	if !p.Header.FlagRequestAuth {
		return fmt.Errorf("%w: response did not carry an AuthHash extension", wiperrors.ErrAuthFailure)
	}
	f, ok := p.Find(wipproto.ExtendedKeyAuthHash)
	if !ok {
		return fmt.Errorf("%w: response set flag_request_auth but carried no AuthHash extension", wiperrors.ErrAuthFailure)
	}
	mac, err := f.AuthHashBytes()
	if err != nil {
		return fmt.Errorf("%w: %v", wiperrors.ErrAuthFailure, err)
	}
	return wipauth.Verify(algo, p.Header.PacketID, p.Header.Timestamp, passphrase, mac)
}

// send encodes a request packet, performs the UDP transaction against
// addr, decodes the response, and checks it for a server-signaled error
// or an auth failure before returning it to the caller. passphrase is the
// role's own passphrase, used only if VerifyResponseAuth is set — a
// server authenticates its response with the same shared secret the
// request was authenticated (or would have been authenticated) with.
func (c *Client) send(ctx context.Context, addr string, req wipproto.Packet, passphrase string) (wipproto.Packet, error) {
	encoded, err := wipproto.EncodePacket(req)
	if err != nil {
		return wipproto.Packet{}, err
	}

	c.metrics.transactionsOpened.Inc()
	raw, err := c.transactor.Send(ctx, addr, encoded, req.Header.PacketID, c.opts.RecvTimeout, c.opts.Timeout)
	if err != nil {
		if errors.Is(err, wiperrors.ErrTimeout) {
			c.metrics.transactionsTimedOut.Inc()
		}
		return wipproto.Packet{}, err
	}

	resp, err := wipproto.DecodePacket(raw)
	if err != nil {
		if errors.Is(err, wiperrors.ErrChecksumMismatch) {
			c.metrics.checksumFailures.Inc()
		}
		return wipproto.Packet{}, err
	}

	if resp.Header.Type == wipproto.PacketTypeError {
		serverErr := &wiperrors.ServerError{}
		if resp.Header.ResponseTail != nil {
			serverErr.Code = resp.Header.ResponseTail.WeatherCode
		}
		if f, ok := resp.Find(wipproto.ExtendedKeyCustomData); ok {
			serverErr.Message = f.CustomDataString()
		}
		return wipproto.Packet{}, serverErr
	}

	if c.opts.VerifyResponseAuth {
		if err := verifyResponseAuth(c.opts.AuthAlgorithm, passphrase, resp); err != nil {
			c.metrics.authFailures.Inc()
			return wipproto.Packet{}, err
		}
	}
	return resp, nil
}

// resolveAreaCode implements the direct-mode first step: look up
// (latitude, longitude) in the cache, and only query the location
// resolver with a CoordinateRequest on a miss.
func (c *Client) resolveAreaCode(ctx context.Context, latitude, longitude float64) (uint32, error) {
	if areaCode, ok := c.cache.Get(latitude, longitude); ok {
		return areaCode, nil
	}

	header, extras, err := c.newRequestHeader(wipproto.PacketTypeCoordinateRequest, 0, c.opts.Location)
	if err != nil {
		return 0, err
	}
	req := wipproto.Packet{
		Header: header,
		Extensions: append([]wipproto.ExtendedField{
			wipproto.NewLatitudeField(latitude),
			wipproto.NewLongitudeField(longitude),
		}, extras...),
	}

	resp, err := c.send(ctx, c.opts.LocationAddr, req, c.opts.Location.Passphrase)
	if err != nil {
		return 0, err
	}
	c.cache.Set(latitude, longitude, resp.Header.AreaCode)
	return resp.Header.AreaCode, nil
}
