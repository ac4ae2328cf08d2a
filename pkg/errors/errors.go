package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Code is the type representing a namespace error code.
type Code[MT any] struct {
	Code     uint16
	Name     string
	GrpcCode grpccodes.Code
}

// New creates a new error with the given code and the message
func (c Code[MT]) New(msg string, args ...any) TypedError[MT] {
	return &ErrorImpl[MT]{
		code:  c,
		cause: fmt.Errorf(msg, args...),
	}
}

// Wrap creates a new Error with the given code and the cause error
func (c Code[MT]) Wrap(cause error) TypedError[MT] {
	return &ErrorImpl[MT]{
		code:  c,
		cause: cause,
	}
}

func (c Code[MT]) String() string {
	return fmt.Sprintf("%s (%d)", c.Name, c.Code)
}

// Is reports whether err carries this code.
func (c Code[MT]) Is(err error) bool {
	var e Error
	return stderrors.As(err, &e) && e.Code() == c.Code
}

type Error interface {
	error
	Log() *log.Entry
	Code() uint16
	CodeName() string
	GrpcCode() grpccodes.Code
	GRPCStatus() *status.Status
	Metadata() map[string]string
	Unwrap() error
}

type TypedError[MT any] interface {
	Error
	WithMetadata(MT) TypedError[MT]
}

// ErrorImpl is the default concrete implementation of TypedError.
type ErrorImpl[MT any] struct {
	code     Code[MT]
	cause    error
	metadata MT
}

func (e *ErrorImpl[MT]) Log() *log.Entry {
	return log.WithField("name", e.code.Name).
		WithField("code", e.code.Code).
		WithField("metadata", e.metadata)
}

func (e *ErrorImpl[MT]) Metadata() map[string]string {
	// convert any metadata to map[string]string
	metadata := make(map[string]string)
	buf, err := json.Marshal(e.metadata)
	if err == nil {
		var genericMap map[string]any
		if err := json.Unmarshal(buf, &genericMap); err == nil {
			for k, v := range genericMap {
				vStr := ""
				if v != nil {
					vStr = fmt.Sprintf("%v", v)
				}
				metadata[k] = vStr
			}
		}
	}
	return metadata
}

func (e *ErrorImpl[MT]) GrpcCode() grpccodes.Code {
	return e.code.GrpcCode
}

// GRPCStatus makes the error convertible with status.Convert. The details hold
// the code, its name and the stringified metadata.
func (e *ErrorImpl[MT]) GRPCStatus() *status.Status {
	st := status.New(e.code.GrpcCode, e.Error())

	fields := map[string]any{
		"code": float64(e.code.Code),
		"name": e.code.Name,
	}
	for k, v := range e.Metadata() {
		fields[k] = v
	}
	details, err := structpb.NewStruct(fields)
	if err != nil {
		return st
	}
	stWithDetails, err := st.WithDetails(details)
	if err != nil {
		return st
	}
	return stWithDetails
}

func (e *ErrorImpl[MT]) Code() uint16 {
	return e.code.Code
}

func (e *ErrorImpl[MT]) CodeName() string {
	return e.code.Name
}

func (e *ErrorImpl[MT]) Unwrap() error {
	return e.cause
}

// Error() implements the error interface.
func (e *ErrorImpl[MT]) Error() string {
	return fmt.Sprintf("%s: %s", e.code.String(), e.cause.Error())
}

func (e *ErrorImpl[MT]) WithMetadata(metadata MT) TypedError[MT] {
	e.metadata = metadata
	return e
}

type UnauthorizedMetadata struct {
	Role     string `json:"role"`
	Expected string `json:"expected"`
	Signer   string `json:"signer"`
}

type RoyaltyConfigMetadata struct {
	BasisPoints     int `json:"basis_points"`
	CreatorsCount   int `json:"creators_count"`
	CreatorsPercent int `json:"creators_percent"`
}

type PluginMetadata struct {
	PluginType string `json:"plugin_type"`
}

type CollectionMetadata struct {
	Collection string `json:"collection"`
}

type AssetMetadata struct {
	Asset string `json:"asset"`
}

type StorageConflictMetadata struct {
	Address string `json:"address"`
}

type CollectionMismatchMetadata struct {
	Asset              string `json:"asset"`
	ExpectedCollection string `json:"expected_collection"`
	GotCollection      string `json:"got_collection"`
}

type AssetPluginMetadata struct {
	Asset      string `json:"asset"`
	PluginType string `json:"plugin_type"`
}

var INTERNAL_ERROR = Code[map[string]any]{0, "INTERNAL_ERROR", grpccodes.Internal}
var UNAUTHORIZED = Code[UnauthorizedMetadata]{1, "UNAUTHORIZED", grpccodes.PermissionDenied}

var INVALID_ROYALTY_CONFIG = Code[RoyaltyConfigMetadata]{
	2,
	"INVALID_ROYALTY_CONFIG",
	grpccodes.InvalidArgument,
}
var INVALID_PLUGIN = Code[PluginMetadata]{3, "INVALID_PLUGIN", grpccodes.InvalidArgument}

var COLLECTION_NOT_FOUND = Code[CollectionMetadata]{
	4,
	"COLLECTION_NOT_FOUND",
	grpccodes.NotFound,
}
var ASSET_NOT_FOUND = Code[AssetMetadata]{5, "ASSET_NOT_FOUND", grpccodes.NotFound}

var STORAGE_CONFLICT = Code[StorageConflictMetadata]{
	6,
	"STORAGE_CONFLICT",
	grpccodes.AlreadyExists,
}
var ASSET_FROZEN = Code[AssetMetadata]{7, "ASSET_FROZEN", grpccodes.FailedPrecondition}

var ASSET_COLLECTION_MISMATCH = Code[CollectionMismatchMetadata]{
	8,
	"ASSET_COLLECTION_MISMATCH",
	grpccodes.InvalidArgument,
}
var INVALID_REQUEST = Code[map[string]any]{9, "INVALID_REQUEST", grpccodes.InvalidArgument}

var PLUGIN_NOT_FOUND = Code[AssetPluginMetadata]{
	10,
	"PLUGIN_NOT_FOUND",
	grpccodes.FailedPrecondition,
}
