package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	vmseederrors "github.com/vmseed/vmseed/pkg/errors"
)

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestScriptAcceptsShellScript(t *testing.T) {
	t.Parallel()

	srv := newServer(t, http.StatusOK, "#!/bin/sh\nset -e\necho installing\n")
	client := New(time.Second)

	body, err := client.Script(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Contains(t, string(body), "echo installing")
}

func TestScriptRejectsHTMLErrorPage(t *testing.T) {
	t.Parallel()

	// Hosting providers serve styled error pages with 200 status codes.
	srv := newServer(t, http.StatusOK, "<!DOCTYPE html><html><body>503</body></html>")
	client := New(time.Second)

	_, err := client.Script(context.Background(), srv.URL)
	require.Error(t, err)

	var netErr *vmseederrors.NetworkError
	require.True(t, errors.As(err, &netErr))
	require.Equal(t, srv.URL, netErr.URL)
}

func TestScriptRejectsMissingShebang(t *testing.T) {
	t.Parallel()

	srv := newServer(t, http.StatusOK, "just some text that is not a script")
	client := New(time.Second)

	_, err := client.Script(context.Background(), srv.URL)
	require.Error(t, err)

	var netErr *vmseederrors.NetworkError
	require.True(t, errors.As(err, &netErr))
}

func TestScriptRejectsNon200(t *testing.T) {
	t.Parallel()

	srv := newServer(t, http.StatusNotFound, "not found")
	client := New(time.Second)

	_, err := client.Script(context.Background(), srv.URL)
	require.Error(t, err)

	var netErr *vmseederrors.NetworkError
	require.True(t, errors.As(err, &netErr))
}

func TestFileAcceptsPlainContent(t *testing.T) {
	t.Parallel()

	srv := newServer(t, http.StatusOK, "alias ll='ls -la'\nexport EDITOR=vim\n")
	client := New(time.Second)

	body, err := client.File(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Contains(t, string(body), "EDITOR")
}

func TestFileRejectsHTMLAndEmpty(t *testing.T) {
	t.Parallel()

	htmlSrv := newServer(t, http.StatusOK, "  <html><head><title>Oops</title></head></html>")
	emptySrv := newServer(t, http.StatusOK, "   \n\t ")
	client := New(time.Second)

	_, err := client.File(context.Background(), htmlSrv.URL)
	require.Error(t, err)

	_, err = client.File(context.Background(), emptySrv.URL)
	require.Error(t, err)
}

func TestFileTransportFailure(t *testing.T) {
	t.Parallel()

	srv := newServer(t, http.StatusOK, "body")
	srv.Close()
	client := New(time.Second)

	_, err := client.File(context.Background(), srv.URL)
	require.Error(t, err)

	var netErr *vmseederrors.NetworkError
	require.True(t, errors.As(err, &netErr))
}

func TestLooksLikeHTML(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
		want bool
	}{
		{name: "doctype", body: "<!DOCTYPE html>", want: true},
		{name: "html tag", body: "<HTML lang=\"en\">", want: true},
		{name: "head tag with leading whitespace", body: "\n  <head>", want: true},
		{name: "body tag", body: "<body>", want: true},
		{name: "shell script", body: "#!/bin/sh\necho hi", want: false},
		{name: "rc file", body: "alias ll='ls -la'", want: false},
		{name: "empty", body: "", want: false},
		{name: "comparison in script", body: "#!/bin/sh\nif [ $a <html ]", want: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, LooksLikeHTML([]byte(tc.body)))
		})
	}
}

func TestHasShebang(t *testing.T) {
	t.Parallel()

	require.True(t, HasShebang([]byte("#!/bin/sh\n")))
	require.True(t, HasShebang([]byte("\n\n#!/usr/bin/env bash\n")))
	require.False(t, HasShebang([]byte("echo no shebang")))
	require.False(t, HasShebang([]byte("")))
}
