// Package testutil holds the fixtures shared by the tests of the api and the admin cli.
package testutil

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"

	"github.com/pathwayhq/pathway/core/user"
)

var (
	// PNG & PDF are the smallest contents sniffed as image/png & application/pdf.
	PNG = []byte("\x89PNG\x0D\x0A\x1A\x0A\x00\x00\x00\x0DIHDR")
	PDF = []byte("%PDF-1.4\n%EOF\n")
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		FullName:  name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if role == user.RoleParticipant {
		usr.UniqueID = user.NewUniqueID()
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser(): %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}

// CreateParticipant creates an active participant of `batch`, coached by `coachID`.
func CreateParticipant(t *testing.T, repo user.Repository, name, email, coachID, batch string) user.User {
	usr := CreateUser(t, repo, name, email, "", user.RoleParticipant, true)
	usr.CoachID = coachID
	usr.Batch = batch
	usr, err := repo.UpdateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateParticipant(): %v", err)
	}
	return usr
}

type File struct {
	Name    string
	Content []byte
}

// Multipart encodes `fields` & `files` (all under the "file" field) as a multipart form.
func Multipart(t *testing.T, fields map[string]string, files ...File) ([]byte, string) {
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("Multipart(): %v", err)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+f.Name+`"`)
		h.Set("Content-Type", "application/octet-stream")
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("Multipart(): %v", err)
		}
		if _, err = part.Write(f.Content); err != nil {
			t.Fatalf("Multipart(): %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Multipart(): %v", err)
	}
	return body.Bytes(), w.FormDataContentType()
}
