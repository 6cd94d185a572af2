package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/pvidal/battlegrid/internal/model"
)

// Frame layout: 1 byte version, 1 byte message type, 2 bytes big-endian
// payload length, payload. Strings inside payloads are length-prefixed with
// a single byte. This replaces the fixed-size raw-struct layout of earlier
// designs with an explicit, versioned encoding.

const headerLen = 4

var (
	ErrBadVersion = errors.New("protocol: unsupported frame version")
	ErrMalformed  = errors.New("protocol: malformed payload")
)

// UnknownTypeError is returned by ReadRequest and ReadServerMessage when the
// frame carries a tag this version does not know. The frame's payload has
// been consumed, so the stream stays usable.
type UnknownTypeError struct {
	Type MsgType
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("protocol: unknown message type %d", e.Type)
}

func writeFrame(w io.Writer, t MsgType, payload []byte) error {
	if len(payload) > 0xFFFF {
		return fmt.Errorf("protocol: payload too large (%d bytes)", len(payload))
	}
	header := [headerLen]byte{Version, byte(t)}
	binary.BigEndian.PutUint16(header[2:], uint16(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func readFrame(r io.Reader) (MsgType, []byte, error) {
	var header [headerLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, err
	}
	if header[0] != Version {
		return 0, nil, ErrBadVersion
	}
	t := MsgType(header[1])
	n := binary.BigEndian.Uint16(header[2:])
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, err
	}
	return t, payload, nil
}

// encoder accumulates a payload; the first write error sticks.
type encoder struct {
	buf bytes.Buffer
	err error
}

func (e *encoder) byte(b byte) {
	if e.err != nil {
		return
	}
	e.buf.WriteByte(b)
}

func (e *encoder) boolean(b bool) {
	if b {
		e.byte(1)
	} else {
		e.byte(0)
	}
}

func (e *encoder) uint32(v uint32) {
	if e.err != nil {
		return
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) str(s string) {
	if e.err != nil {
		return
	}
	if len(s) > 0xFF {
		e.err = fmt.Errorf("protocol: string too long (%d bytes)", len(s))
		return
	}
	e.buf.WriteByte(byte(len(s)))
	e.buf.WriteString(s)
}

func (e *encoder) coordinate(c model.Coordinate) {
	e.byte(byte(c.X))
	e.byte(byte(c.Y))
}

func (e *encoder) grid(g model.Grid) {
	for _, cell := range g {
		e.byte(byte(cell))
	}
}

// decoder consumes a payload; the first error sticks and every later read
// returns a zero value.
type decoder struct {
	buf []byte
	off int
	err error
}

func (d *decoder) fail() {
	if d.err == nil {
		d.err = ErrMalformed
	}
}

func (d *decoder) byte() byte {
	if d.err != nil || d.off >= len(d.buf) {
		d.fail()
		return 0
	}
	b := d.buf[d.off]
	d.off++
	return b
}

func (d *decoder) boolean() bool {
	return d.byte() != 0
}

func (d *decoder) uint32() uint32 {
	if d.err != nil || d.off+4 > len(d.buf) {
		d.fail()
		return 0
	}
	v := binary.BigEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v
}

func (d *decoder) str() string {
	n := int(d.byte())
	if d.err != nil || d.off+n > len(d.buf) {
		d.fail()
		return ""
	}
	s := string(d.buf[d.off : d.off+n])
	d.off += n
	return s
}

func (d *decoder) coordinate() model.Coordinate {
	x := int8(d.byte())
	y := int8(d.byte())
	return model.Coordinate{X: x, Y: y}
}

func (d *decoder) grid() model.Grid {
	var g model.Grid
	for i := range g {
		cell := model.Cell(d.byte())
		if !cell.Valid() {
			d.fail()
			return model.Grid{}
		}
		g[i] = cell
	}
	return g
}

// finish reports the accumulated decode error; trailing bytes are also an
// error so a corrupted frame never decodes silently.
func (d *decoder) finish() error {
	if d.err != nil {
		return d.err
	}
	if d.off != len(d.buf) {
		return ErrMalformed
	}
	return nil
}

// WriteRequest encodes and frames a client request.
func WriteRequest(w io.Writer, req Request) error {
	var e encoder
	switch r := req.(type) {
	case *SignupRequest:
		e.str(r.Username)
		e.str(r.Password)
	case *LoginRequest:
		e.str(r.Username)
		e.str(r.Password)
	case *LogoutRequest:
		e.str(r.Token)
	case *ListUsersRequest:
		e.str(r.Token)
	case *LookForGameRequest:
		e.str(r.Token)
	case *CancelLookForGameRequest:
		e.str(r.Token)
	case *ChallengePlayerRequest:
		e.str(r.Token)
		e.str(r.TargetUsername)
	case *ChallengeAnswerRequest:
		e.str(r.Token)
		e.boolean(r.Accept)
	case *GameStartRequest:
		e.str(r.Token)
		e.grid(r.Placement)
	case *PlayerShotRequest:
		e.str(r.Token)
		e.coordinate(r.Target)
	default:
		panic(fmt.Sprintf("protocol: unhandled request type %T", req))
	}
	if e.err != nil {
		return e.err
	}
	return writeFrame(w, req.requestType(), e.buf.Bytes())
}

// ReadRequest reads and decodes the next client request from the stream.
// An *UnknownTypeError leaves the stream usable; any other error means the
// connection is broken or the peer is not speaking this protocol.
func ReadRequest(r io.Reader) (Request, error) {
	t, payload, err := readFrame(r)
	if err != nil {
		return nil, err
	}
	d := decoder{buf: payload}
	var req Request
	switch t {
	case MsgSignup:
		req = &SignupRequest{Username: d.str(), Password: d.str()}
	case MsgLogin:
		req = &LoginRequest{Username: d.str(), Password: d.str()}
	case MsgLogout:
		req = &LogoutRequest{Token: d.str()}
	case MsgListUsers:
		req = &ListUsersRequest{Token: d.str()}
	case MsgLookForGame:
		req = &LookForGameRequest{Token: d.str()}
	case MsgCancelLookForGame:
		req = &CancelLookForGameRequest{Token: d.str()}
	case MsgChallengePlayer:
		req = &ChallengePlayerRequest{Token: d.str(), TargetUsername: d.str()}
	case MsgChallengeAnswer:
		req = &ChallengeAnswerRequest{Token: d.str(), Accept: d.boolean()}
	case MsgGameStart:
		req = &GameStartRequest{Token: d.str(), Placement: d.grid()}
	case MsgPlayerShot:
		req = &PlayerShotRequest{Token: d.str(), Target: d.coordinate()}
	default:
		return nil, &UnknownTypeError{Type: t}
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return req, nil
}

// status encodes the shared response prefix: the status byte, followed by
// the error message when the status is not OK.
func (e *encoder) status(s Status, message string) bool {
	if len(message) > MaxErrorMessageLen {
		message = message[:MaxErrorMessageLen]
	}
	e.byte(byte(s))
	if s != StatusOK {
		e.str(message)
		return false
	}
	return true
}

func (d *decoder) status() (Status, string) {
	s := Status(d.byte())
	if s != StatusOK {
		return s, d.str()
	}
	return s, ""
}

// WriteMessage encodes and frames a server -> client message.
func WriteMessage(w io.Writer, msg ServerMessage) error {
	var e encoder
	switch m := msg.(type) {
	case *SignupResponse:
		if e.status(m.Status, m.Message) {
			e.str(m.Token)
		}
	case *LoginResponse:
		if e.status(m.Status, m.Message) {
			e.str(m.Token)
		}
	case *LogoutResponse:
		e.status(m.Status, m.Message)
	case *ListUsersResponse:
		if e.status(m.Status, m.Message) {
			e.uint32(uint32(len(m.Users)))
			for _, u := range m.Users {
				e.boolean(u.LookingForGame)
				e.str(u.Username)
			}
		}
	case *LookForGameResponse:
		e.status(m.Status, m.Message)
	case *CancelLookForGameResponse:
		e.status(m.Status, m.Message)
	case *ChallengePlayerResponse:
		if e.status(m.Status, m.Message) {
			e.uint32(m.GameID)
		}
	case *ChallengeQuestion:
		e.str(m.ChallengerUsername)
	case *ChallengeAnswerResponse:
		if e.status(m.Status, m.Message) {
			e.uint32(m.GameID)
		}
	case *GameStartResponse:
		if e.status(m.Status, m.Message) {
			e.boolean(m.FirstTurn)
		}
	case *PlayerShotResponse:
		if e.status(m.Status, m.Message) {
			e.boolean(m.Hit)
		}
	case *RegisterShot:
		e.boolean(m.Hit)
		e.coordinate(m.Target)
	case *GameAbandonedNotice:
		// no payload
	default:
		panic(fmt.Sprintf("protocol: unhandled server message type %T", msg))
	}
	if e.err != nil {
		return e.err
	}
	return writeFrame(w, msg.serverType(), e.buf.Bytes())
}

// ReadServerMessage reads the next server -> client message: either the
// response to the client's outstanding request or an unsolicited push.
func ReadServerMessage(r io.Reader) (ServerMessage, error) {
	t, payload, err := readFrame(r)
	if err != nil {
		return nil, err
	}
	d := decoder{buf: payload}
	var msg ServerMessage
	switch t {
	case MsgSignup:
		m := &SignupResponse{}
		m.Status, m.Message = d.status()
		if m.Status == StatusOK {
			m.Token = d.str()
		}
		msg = m
	case MsgLogin:
		m := &LoginResponse{}
		m.Status, m.Message = d.status()
		if m.Status == StatusOK {
			m.Token = d.str()
		}
		msg = m
	case MsgLogout:
		m := &LogoutResponse{}
		m.Status, m.Message = d.status()
		msg = m
	case MsgListUsers:
		m := &ListUsersResponse{}
		m.Status, m.Message = d.status()
		if m.Status == StatusOK {
			n := d.uint32()
			if d.err == nil && int(n) <= len(d.buf) {
				m.Users = make([]UserEntry, 0, n)
				for i := uint32(0); i < n; i++ {
					looking := d.boolean()
					name := d.str()
					m.Users = append(m.Users, UserEntry{Username: name, LookingForGame: looking})
				}
			} else {
				d.fail()
			}
		}
		msg = m
	case MsgLookForGame:
		m := &LookForGameResponse{}
		m.Status, m.Message = d.status()
		msg = m
	case MsgCancelLookForGame:
		m := &CancelLookForGameResponse{}
		m.Status, m.Message = d.status()
		msg = m
	case MsgChallengePlayer:
		m := &ChallengePlayerResponse{}
		m.Status, m.Message = d.status()
		if m.Status == StatusOK {
			m.GameID = d.uint32()
		}
		msg = m
	case MsgChallengeQuestion:
		msg = &ChallengeQuestion{ChallengerUsername: d.str()}
	case MsgChallengeAnswer:
		m := &ChallengeAnswerResponse{}
		m.Status, m.Message = d.status()
		if m.Status == StatusOK {
			m.GameID = d.uint32()
		}
		msg = m
	case MsgGameStart:
		m := &GameStartResponse{}
		m.Status, m.Message = d.status()
		if m.Status == StatusOK {
			m.FirstTurn = d.boolean()
		}
		msg = m
	case MsgPlayerShot:
		m := &PlayerShotResponse{}
		m.Status, m.Message = d.status()
		if m.Status == StatusOK {
			m.Hit = d.boolean()
		}
		msg = m
	case MsgRegisterShot:
		msg = &RegisterShot{Hit: d.boolean(), Target: d.coordinate()}
	case MsgGameAbandoned:
		msg = &GameAbandonedNotice{}
	default:
		return nil, &UnknownTypeError{Type: t}
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return msg, nil
}
