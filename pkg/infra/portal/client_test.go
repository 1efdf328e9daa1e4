package portal_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/kmafetch/kmafetch/pkg/domain/model"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/kmafetch/kmafetch/pkg/infra/portal"
	"github.com/m-mizutani/gt"
)

type fakePortal struct {
	mu             sync.Mutex
	loginStatus    int
	setCookie      bool
	downloadStatus int
	registered     []*http.Request
	registerForms  []map[string]string
	downloads      []string
	downloadHeader http.Header
	loginForm      string
}

func (f *fakePortal) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/loginAjax.do", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.mu.Lock()
		f.loginForm = r.PostForm.Get("loginId") + ":" + r.PostForm.Get("passwordNo")
		f.mu.Unlock()
		if f.setCookie {
			http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "abc", Path: "/"})
		}
		w.WriteHeader(f.loginStatus)
	})
	mux.HandleFunc("/mypage/rmt/callDtaReqstIrods4xxAjax.do", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		form := map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		f.mu.Lock()
		f.registered = append(f.registered, r)
		f.registerForms = append(f.registerForms, form)
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"result":"ok"}`))
	})
	mux.HandleFunc("/data/rmt/downloadZip.do", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.mu.Lock()
		f.downloads = append(f.downloads, r.PostForm.Get("downFile"))
		f.downloadHeader = r.Header.Clone()
		f.mu.Unlock()
		w.WriteHeader(f.downloadStatus)
		if f.downloadStatus == http.StatusOK {
			_, _ = w.Write([]byte("PK-archive"))
		}
	})
	return mux
}

func testProduct() *model.Product {
	return &model.Product{
		Name:        "초단기실황",
		Code:        "400",
		API:         "request400",
		Mode:        model.IntervalMonthly,
		PurposeCode: "F00401",
		RequestPath: "/mypage/rmt/callDtaReqstIrods4xxAjax.do",
		SelectType:  "1",
	}
}

func testItem() model.WorkItem {
	return model.WorkItem{
		Index:    1,
		Region:   model.Region{Level1: "서울특별시", Level2: "종로구", Level3: "청운효자동", Code: "1111051500"},
		Interval: model.Interval{Start: "202301", End: "202301"},
		Variable: model.Variable{Code: "T1H", Name: "기온"},
	}
}

func TestClient_AuthenticateAndFetch(t *testing.T) {
	ctx := context.Background()
	fake := &fakePortal{loginStatus: http.StatusOK, setCookie: true, downloadStatus: http.StatusOK}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := portal.NewClient(portal.WithBaseURL(srv.URL), portal.WithLoginWait(0))

	session, err := client.Authenticate(ctx, "user", "secret")
	gt.NoError(t, err)
	gt.True(t, session.Valid())
	gt.Equal(t, session.Cookie, "JSESSIONID=abc")
	gt.Equal(t, fake.loginForm, "user:secret")

	data, err := client.SubmitAndFetch(ctx, session, testProduct(), testItem())
	gt.NoError(t, err)
	gt.Equal(t, string(data), "PK-archive")

	gt.A(t, fake.registered).Length(1)
	reg := fake.registered[0]
	gt.Equal(t, reg.Header.Get("Cookie"), "JSESSIONID=abc")
	gt.Equal(t, reg.Header.Get("X-Requested-With"), "XMLHttpRequest")
	gt.Equal(t, reg.Header.Get("Sec-Fetch-Mode"), "cors")

	form := fake.registerForms[0]
	gt.Equal(t, form["req_list"], "202301|202301|400|T1H|1111051500")
	gt.Equal(t, form["startDt"], "2023")
	gt.Equal(t, form["startMt"], "01")
	gt.Equal(t, form["stnm"], "청운효자동")
	gt.Equal(t, form["txtVar1Nm"], "기온")
	gt.Equal(t, form["apiCd"], "request400")

	gt.Equal(t, fake.downloads, []string{"청운효자동_기온_202301_202301.csv"})
	gt.Equal(t, fake.downloadHeader.Get("Cookie"), "JSESSIONID=abc")
	gt.Equal(t, fake.downloadHeader.Get("Sec-Fetch-Dest"), "iframe")
	gt.Equal(t, fake.downloadHeader.Get("Sec-Fetch-User"), "?1")
}

func TestClient_AuthenticateFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("non success status", func(t *testing.T) {
		fake := &fakePortal{loginStatus: http.StatusUnauthorized, setCookie: true}
		srv := httptest.NewServer(fake.handler())
		defer srv.Close()

		_, err := portal.NewClient(portal.WithBaseURL(srv.URL), portal.WithLoginWait(0)).Authenticate(ctx, "user", "secret")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, types.ErrAuth))
	})

	t.Run("no cookie", func(t *testing.T) {
		fake := &fakePortal{loginStatus: http.StatusOK}
		srv := httptest.NewServer(fake.handler())
		defer srv.Close()

		_, err := portal.NewClient(portal.WithBaseURL(srv.URL), portal.WithLoginWait(0)).Authenticate(ctx, "user", "secret")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, types.ErrAuth))
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := portal.NewClient(portal.WithBaseURL(url), portal.WithLoginWait(0)).Authenticate(ctx, "user", "secret")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, types.ErrAuth))
	})
}

func TestClient_DownloadStatus(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{name: "forbidden rejects session", status: http.StatusForbidden, want: types.ErrSessionRejected},
		{name: "unauthorized rejects session", status: http.StatusUnauthorized, want: types.ErrSessionRejected},
		{name: "server error fails item", status: http.StatusInternalServerError, want: types.ErrPortalItem},
		{name: "not found fails item", status: http.StatusNotFound, want: types.ErrPortalItem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakePortal{loginStatus: http.StatusOK, setCookie: true, downloadStatus: tt.status}
			srv := httptest.NewServer(fake.handler())
			defer srv.Close()

			client := portal.NewClient(portal.WithBaseURL(srv.URL), portal.WithLoginWait(0))
			session, err := client.Authenticate(ctx, "user", "secret")
			gt.NoError(t, err)

			_, err = client.SubmitAndFetch(ctx, session, testProduct(), testItem())
			gt.Error(t, err)
			gt.True(t, errors.Is(err, tt.want))
		})
	}
}

func TestClient_InvalidSession(t *testing.T) {
	session := model.NewPortalSession("JSESSIONID=abc", time.Now())
	session.Invalidate()

	_, err := portal.NewClient().SubmitAndFetch(context.Background(), session, testProduct(), testItem())
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrSessionRejected))
}
