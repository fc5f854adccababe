package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"filedepot-idp/internal/domain"
)

// UserDocument is the denormalized projection of a user mirrored into the
// search index. It carries no credentials or tokens.
type UserDocument struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	FullName         string    `json:"fullName"`
	IsEmailConfirmed bool      `json:"isEmailConfirmed"`
	CreateTime       time.Time `json:"createTime"`
}

func NewUserDocument(u *domain.User) UserDocument {
	return UserDocument{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		FullName:         u.FullName,
		IsEmailConfirmed: u.IsEmailConfirmed,
		CreateTime:       u.CreateTime,
	}
}

// UserIndex is the eventually-consistent search mirror of the credential
// store. Calls are best-effort: errors propagate, nothing is retried.
type UserIndex interface {
	AddDocuments(ctx context.Context, docs []UserDocument) error
	UpdateDocuments(ctx context.Context, docs []UserDocument) error
	DeleteDocuments(ctx context.Context, ids []string) error
}

type userIndex struct {
	client *opensearch.Client
	index  string
}

func NewUserIndex(client *opensearch.Client, index string) UserIndex {
	return &userIndex{client: client, index: index}
}

func (s *userIndex) AddDocuments(ctx context.Context, docs []UserDocument) error {
	for _, d := range docs {
		b, err := json.Marshal(d)
		if err != nil {
			return err
		}
		req := opensearchapi.IndexRequest{
			Index:      s.index,
			DocumentID: d.ID,
			Body:       bytes.NewReader(b),
		}
		if err := s.do(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

func (s *userIndex) UpdateDocuments(ctx context.Context, docs []UserDocument) error {
	for _, d := range docs {
		b, err := json.Marshal(map[string]UserDocument{"doc": d})
		if err != nil {
			return err
		}
		req := opensearchapi.UpdateRequest{
			Index:      s.index,
			DocumentID: d.ID,
			Body:       bytes.NewReader(b),
		}
		if err := s.do(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

func (s *userIndex) DeleteDocuments(ctx context.Context, ids []string) error {
	for _, id := range ids {
		req := opensearchapi.DeleteRequest{
			Index:      s.index,
			DocumentID: id,
		}
		res, err := req.Do(ctx, s.client)
		if err != nil {
			return err
		}
		// deleting an absent document is a no-op, not a failure
		if res.IsError() && res.StatusCode != 404 {
			msg := res.String()
			_ = res.Body.Close()
			return fmt.Errorf("search index %s: %s", s.index, msg)
		}
		_ = res.Body.Close()
	}
	return nil
}

type osRequest interface {
	Do(ctx context.Context, transport opensearchapi.Transport) (*opensearchapi.Response, error)
}

func (s *userIndex) do(ctx context.Context, req osRequest) error {
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("search index %s: %s", s.index, res.String())
	}
	return nil
}

// NewClient builds the OpenSearch client used by the index mirror.
func NewClient(addresses []string, username, password string) (*opensearch.Client, error) {
	return opensearch.NewClient(opensearch.Config{
		Addresses: addresses,
		Username:  username,
		Password:  password,
	})
}
