// Package api is the client's single point of outbound catalog requests.
// Every operation is a GraphQL request against one endpoint; the current
// credential is read from its source right before each request and every
// failure is classified as AuthError, NetworkError or OtherError.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atinyakov/BookKeeper/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Operation names, used as the Op of returned errors and in logs.
const (
	OpListRecords      = "findAllBooks"
	OpGetRecord        = "findOneBook"
	OpCreateRecord     = "createBook"
	OpUpdateRecord     = "updateBook"
	OpDeleteRecord     = "deleteBook"
	OpDeleteAllRecords = "deleteAllBooks"
)

const maxResponseBytes = 4 << 20

// CredentialSource yields the bearer credential. An empty token means
// unauthenticated; the request is then sent without Authorization.
type CredentialSource interface {
	AccessToken() (string, error)
}

// Gateway issues catalog operations against a GraphQL endpoint.
type Gateway struct {
	client   *http.Client
	endpoint string
	creds    CredentialSource
	log      *zap.Logger
}

// NewGateway returns a Gateway. log may be nil.
func NewGateway(client *http.Client, endpoint string, creds CredentialSource, log *zap.Logger) *Gateway {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{client: client, endpoint: endpoint, creds: creds, log: log}
}

// ListRecords returns every book in server order.
func (g *Gateway) ListRecords(ctx context.Context) ([]models.Book, error) {
	var data struct {
		FindAllBooks *[]wireBook `json:"findAllBooks"`
	}
	if err := g.do(ctx, OpListRecords, queryFindAllBooks, nil, &data); err != nil {
		return nil, err
	}
	if data.FindAllBooks == nil {
		return nil, shapeError(OpListRecords, "missing findAllBooks")
	}
	books := make([]models.Book, 0, len(*data.FindAllBooks))
	for _, wb := range *data.FindAllBooks {
		b, err := wb.book()
		if err != nil {
			return nil, shapeError(OpListRecords, err.Error())
		}
		books = append(books, b)
	}
	return books, nil
}

// GetRecord fetches a single book by id.
func (g *Gateway) GetRecord(ctx context.Context, id int64) (models.Book, error) {
	var data struct {
		FindOneBook *wireBook `json:"findOneBook"`
	}
	vars := map[string]any{"id": id}
	if err := g.do(ctx, OpGetRecord, queryFindOneBook, vars, &data); err != nil {
		return models.Book{}, err
	}
	return singleBook(OpGetRecord, data.FindOneBook)
}

// CreateRecord creates a book and returns it with its server-assigned id.
func (g *Gateway) CreateRecord(ctx context.Context, name, description string) (models.Book, error) {
	var data struct {
		CreateBook *wireBook `json:"createBook"`
	}
	vars := map[string]any{"name": name, "description": description}
	if err := g.do(ctx, OpCreateRecord, mutationCreateBook, vars, &data); err != nil {
		return models.Book{}, err
	}
	return singleBook(OpCreateRecord, data.CreateBook)
}

// UpdateRecord replaces name and description of book id. An unknown id is an
// ordinary OtherError.
func (g *Gateway) UpdateRecord(ctx context.Context, id int64, name, description string) (models.Book, error) {
	var data struct {
		UpdateBook *wireBook `json:"updateBook"`
	}
	vars := map[string]any{"id": id, "name": name, "description": description}
	if err := g.do(ctx, OpUpdateRecord, mutationUpdateBook, vars, &data); err != nil {
		return models.Book{}, err
	}
	return singleBook(OpUpdateRecord, data.UpdateBook)
}

// DeleteRecord removes book id.
func (g *Gateway) DeleteRecord(ctx context.Context, id int64) error {
	var data struct {
		DeleteBook *bool `json:"deleteBook"`
	}
	if err := g.do(ctx, OpDeleteRecord, mutationDeleteBook, map[string]any{"id": id}, &data); err != nil {
		return err
	}
	return checkAck(OpDeleteRecord, data.DeleteBook)
}

// DeleteAllRecords removes every book.
func (g *Gateway) DeleteAllRecords(ctx context.Context) error {
	var data struct {
		DeleteAllBooks *bool `json:"deleteAllBooks"`
	}
	if err := g.do(ctx, OpDeleteAllRecords, mutationDeleteAllBooks, nil, &data); err != nil {
		return err
	}
	return checkAck(OpDeleteAllRecords, data.DeleteAllBooks)
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

func (g *Gateway) do(ctx context.Context, op, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return &OtherError{Op: op, Message: "encode request", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return &OtherError{Op: op, Message: "build request", Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	if g.creds != nil {
		token, err := g.creds.AccessToken()
		if err != nil {
			g.log.Warn("credential unavailable, sending unauthenticated request",
				zap.String("op", op), zap.Error(err))
		} else if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}
	g.log.Debug("graphql request",
		zap.String("op", op),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	var gr graphQLResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return &OtherError{Op: op, StatusCode: statusIfBad(resp.StatusCode),
			Message: "malformed response", Err: err}
	}
	if len(gr.Errors) > 0 {
		return classifyGraphQLErrors(op, resp.StatusCode, gr.Errors)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &OtherError{Op: op, StatusCode: resp.StatusCode, Message: "unexpected status"}
	}
	if len(gr.Data) == 0 || string(gr.Data) == "null" {
		return shapeError(op, "missing data")
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return &OtherError{Op: op, Message: "malformed data", Err: err}
	}
	return nil
}

func classifyGraphQLErrors(op string, status int, errs []graphQLError) error {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.Extensions.Code == CodeUnauthenticated {
			return &AuthError{Op: op, Message: e.Message}
		}
		msgs = append(msgs, e.Message)
	}
	return &OtherError{
		Op:         op,
		StatusCode: statusIfBad(status),
		Code:       errs[0].Extensions.Code,
		Message:    strings.Join(msgs, "; "),
	}
}

func statusIfBad(status int) int {
	if status >= 200 && status <= 299 {
		return 0
	}
	return status
}

func shapeError(op, msg string) error {
	return &OtherError{Op: op, Message: "unexpected response: " + msg}
}

func singleBook(op string, wb *wireBook) (models.Book, error) {
	if wb == nil {
		return models.Book{}, shapeError(op, "missing "+op)
	}
	b, err := wb.book()
	if err != nil {
		return models.Book{}, shapeError(op, err.Error())
	}
	return b, nil
}

func checkAck(op string, ok *bool) error {
	if ok == nil {
		return shapeError(op, "missing "+op)
	}
	if !*ok {
		return &OtherError{Op: op, Message: "server reported failure"}
	}
	return nil
}

// wireBook accepts ids serialized as Int, Float or numeric String.
type wireBook struct {
	ID          json.Number `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
}

var errBadID = errors.New("invalid book id")

func (w wireBook) book() (models.Book, error) {
	id, err := parseID(w.ID)
	if err != nil {
		return models.Book{}, err
	}
	return models.Book{ID: id, Name: w.Name, Description: w.Description}, nil
}

func parseID(n json.Number) (int64, error) {
	if n == "" {
		return 0, errBadID
	}
	if id, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s", errBadID, n)
	}
	return int64(f), nil
}
