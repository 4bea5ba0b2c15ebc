package tarmac

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	sdkproto "github.com/tarmac-project/protobuf-go/sdk"
	proto "github.com/tarmac-project/protobuf-go/sdk/sql"
	sdk "github.com/tarmac-project/sdk"

	sqlite3 "github.com/strogo/go-sqlite3"
)

const (
	capabilityName = "sql"
	fnExec         = "exec"
	fnQuery        = "query"

	statusOK       = int32(200)
	statusBadInput = int32(400)
	statusMissing  = int32(404)
	statusError    = int32(500)
)

var (
	// ErrNilConnection is returned by New without a Connection.
	ErrNilConnection = errors.New("connection cannot be nil")

	// ErrUnexpectedNamespace is returned for calls outside the configured namespace.
	ErrUnexpectedNamespace = errors.New("unexpected namespace")

	// ErrUnexpectedCapability is returned for capabilities other than sql.
	ErrUnexpectedCapability = errors.New("unexpected capability")

	// ErrUnexpectedFunction is returned for functions other than exec and query.
	ErrUnexpectedFunction = errors.New("unexpected function")

	// ErrInvalidPayload wraps failures while decoding a request.
	ErrInvalidPayload = errors.New("payload is invalid")

	// ErrInvalidQuery indicates an empty SQL query.
	ErrInvalidQuery = errors.New("query is invalid")
)

// Config controls how a Handler serves host calls.
type Config struct {
	// SDKConfig provides the namespace the handler answers in.
	SDKConfig sdk.RuntimeConfig

	// Conn is the database the sql capability runs against.
	Conn *sqlite3.Connection

	// Logger receives one entry per call. Optional.
	Logger *slog.Logger
}

// Handler answers sql capability host calls.
type Handler struct {
	runtime sdk.RuntimeConfig
	conn    *sqlite3.Connection
	log     *slog.Logger
}

// New creates a Handler.
func New(config Config) (*Handler, error) {
	if config.Conn == nil {
		return nil, ErrNilConnection
	}

	runtime := config.SDKConfig
	if runtime.Namespace == "" {
		runtime.Namespace = sdk.DefaultNamespace
	}

	log := config.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Handler{runtime: runtime, conn: config.Conn, log: log}, nil
}

// HostCall dispatches a waPC host call to Exec or Query.
func (h *Handler) HostCall(namespace, capability, function string, payload []byte) ([]byte, error) {
	h.log.Debug("tarmac: host call", "namespace", namespace, "capability", capability, "function", function)

	if namespace != h.runtime.Namespace {
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedNamespace, namespace)
	}
	if capability != capabilityName {
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedCapability, capability)
	}

	switch function {
	case fnExec:
		return h.Exec(payload)
	case fnQuery:
		return h.Query(payload)
	}

	err := fmt.Errorf("%w: %q", ErrUnexpectedFunction, function)
	rsp := &proto.SQLExecResponse{Status: status(statusMissing, err)}
	b, mErr := rsp.MarshalVT()
	if mErr != nil {
		return nil, errors.Join(err, mErr)
	}
	return b, err
}

// Exec runs the SQLExec request in payload.
func (h *Handler) Exec(payload []byte) ([]byte, error) {
	rsp := &proto.SQLExecResponse{}

	var req proto.SQLExec
	err := req.UnmarshalVT(payload)
	if err != nil {
		err = errors.Join(ErrInvalidPayload, err)
		rsp.Status = status(statusBadInput, err)
		return h.reply(rsp.MarshalVT, err)
	}

	query := string(req.GetQuery())
	if strings.TrimSpace(query) == "" {
		rsp.Status = status(statusBadInput, ErrInvalidQuery)
		return h.reply(rsp.MarshalVT, ErrInvalidQuery)
	}

	q := h.conn.Query(query)
	defer q.Close()
	if err = q.Exec(); err != nil {
		rsp.Status = status(statusError, err)
		return h.reply(rsp.MarshalVT, err)
	}

	rsp.Status = status(statusOK, nil)
	rsp.LastInsertId = q.InsertID()
	rsp.RowsAffected = q.AffectedRows()
	return h.reply(rsp.MarshalVT, nil)
}

// Query runs the SQLQuery request in payload.
func (h *Handler) Query(payload []byte) ([]byte, error) {
	rsp := &proto.SQLQueryResponse{}

	var req proto.SQLQuery
	err := req.UnmarshalVT(payload)
	if err != nil {
		err = errors.Join(ErrInvalidPayload, err)
		rsp.Status = status(statusBadInput, err)
		return h.reply(rsp.MarshalVT, err)
	}

	query := string(req.GetQuery())
	if strings.TrimSpace(query) == "" {
		rsp.Status = status(statusBadInput, ErrInvalidQuery)
		return h.reply(rsp.MarshalVT, ErrInvalidQuery)
	}

	q := h.conn.Query(query)
	defer q.Close()
	rs, err := q.Store()
	if err != nil {
		rsp.Status = status(statusError, err)
		return h.reply(rsp.MarshalVT, err)
	}

	data, err := encodeRows(rs)
	if err != nil {
		rsp.Status = status(statusError, err)
		return h.reply(rsp.MarshalVT, err)
	}

	rsp.Status = status(statusOK, nil)
	rsp.Columns = rs.Columns()
	rsp.Data = data
	return h.reply(rsp.MarshalVT, nil)
}

// reply encodes a response; err is what the call itself failed with.
func (h *Handler) reply(marshal func() ([]byte, error), err error) ([]byte, error) {
	if err != nil {
		h.log.Error("tarmac: sql call failed", "err", err)
	}
	b, mErr := marshal()
	if mErr != nil {
		return nil, errors.Join(err, mErr)
	}
	return b, err
}

func status(code int32, err error) *sdkproto.Status {
	if err != nil {
		return &sdkproto.Status{Status: err.Error(), Code: code}
	}
	return &sdkproto.Status{Status: "OK", Code: code}
}

// encodeRows renders rs as a JSON array with one object per row.
// BLOBs are encoded as base64 strings, the encoding/json default,
// and infinite REALs as the strings "+Inf" and "-Inf".
func encodeRows(rs *sqlite3.ResultSet) ([]byte, error) {
	out := make([]map[string]any, 0, rs.Len())
	for _, row := range rs.All() {
		obj := make(map[string]any, row.Len())
		for _, f := range row.Fields() {
			obj[f.Name] = jsonValue(f.Value)
		}
		out = append(out, obj)
	}
	return json.Marshal(out)
}

func jsonValue(v sqlite3.Value) any {
	switch v.Kind() {
	case sqlite3.KindInteger:
		i, _ := v.AsInteger()
		return i
	case sqlite3.KindReal:
		f, _ := v.AsReal()
		if math.IsInf(f, 0) || math.IsNaN(f) {
			// JSON has no numbers for these
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
		return f
	case sqlite3.KindText:
		s, _ := v.AsText()
		return s
	case sqlite3.KindBlob:
		b, _ := v.AsBlob()
		return b
	}
	return nil
}
