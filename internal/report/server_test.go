package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Server", func() {
	var (
		db          *mockDB
		storage     *mockStorage
		extractor   *mockExtractor
		provider    *mockProvider
		signer      *Signer
		now         time.Time
		service     *Service
		server      *Server
		ghttpServer *ghttp.Server
		setupServer func()
	)

	BeforeEach(func() {
		db = newMockDB()
		storage = newMockStorage()
		extractor = newMockExtractor()
		provider = newMockProvider()
		signer = NewSigner("test-secret")
		now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		service = NewServiceWithDeps(
			db,
			extractor,
			storage,
			provider,
			signer,
			money.New(900, "EUR"),
			&mockIDGenerator{id: "test-id-123"},
			&mockTimeSource{now: now},
		)
		server = NewServer(service, BasicAuth{})

		// Each appended handler serves exactly one request, so every spec
		// below performs a single HTTP call.
		setupServer = func() {
			if ghttpServer != nil {
				ghttpServer.Close()
			}
			ghttpServer = ghttp.NewServer()
			ghttpServer.AppendHandlers(server.ServeHTTP)
		}
		setupServer()
	})

	AfterEach(func() {
		ghttpServer.Close()
	})

	buildUpload := func(filename string, fields map[string]string) (*bytes.Buffer, string) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		if filename != "" {
			part, err := writer.CreateFormFile("file", filename)
			Expect(err).NotTo(HaveOccurred())
			_, err = part.Write([]byte("%PDF-1.4 fake content"))
			Expect(err).NotTo(HaveOccurred())
		}
		for key, value := range fields {
			Expect(writer.WriteField(key, value)).To(Succeed())
		}
		Expect(writer.Close()).To(Succeed())
		return body, writer.FormDataContentType()
	}

	Describe("GET /api/health", func() {
		It("should report running", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/health")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var health map[string]string
			Expect(json.NewDecoder(resp.Body).Decode(&health)).To(Succeed())
			Expect(health).To(HaveKeyWithValue("status", "running"))
		})

		When("auth is configured", func() {
			BeforeEach(func() {
				server = NewServer(service, BasicAuth{Username: "admin", Password: "secret"})
				setupServer()
			})

			It("should stay reachable without credentials", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/health")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusOK))
			})
		})
	})

	Describe("GET /api/reports", func() {
		When("reports exist", func() {
			BeforeEach(func() {
				db.reports["id1"] = &Report{ID: "id1", Vendor: "Slack"}
				db.reports["id2"] = &Report{ID: "id2", Vendor: "Notion"}
			})

			It("should return all reports", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/reports")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var reports []*Report
				Expect(json.NewDecoder(resp.Body).Decode(&reports)).To(Succeed())
				Expect(reports).To(HaveLen(2))
			})
		})

		When("no reports exist", func() {
			It("should return an empty array", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/reports")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(strings.TrimSpace(string(body))).To(Equal("[]"))
			})
		})

		When("listing fails", func() {
			BeforeEach(func() {
				db.listErr = errors.New("database error")
			})

			It("should return an internal server error", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/reports")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			})
		})
	})

	Describe("POST /api/reports", func() {
		When("the upload is valid", func() {
			It("should create a report with its links", func() {
				body, contentType := buildUpload("facture.pdf", map[string]string{
					"company_name":   "Acme SARL",
					"signature_name": "Jean Dupont",
				})

				resp, err := http.Post(ghttpServer.URL()+"/api/reports", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusCreated))

				var result uploadResponse
				Expect(json.NewDecoder(resp.Body).Decode(&result)).To(Succeed())
				Expect(result.Report.ID).To(Equal("test-id-123"))
				Expect(result.Report.Vendor).To(Equal("OVHcloud"))
				Expect(result.Report.Total).To(Equal(1200.00))
				Expect(result.Links["full"]).To(ContainSubstring("/api/reports/test-id-123/full?t="))
				Expect(result.Links["confirm"]).To(ContainSubstring("/api/payments/test-id-123/confirm?t="))
			})
		})

		When("a tone is provided", func() {
			It("should keep it on the report", func() {
				body, contentType := buildUpload("facture.pdf", map[string]string{
					"company_name":   "Acme SARL",
					"signature_name": "Jean Dupont",
					"tone":           "Amical",
				})

				resp, err := http.Post(ghttpServer.URL()+"/api/reports", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusCreated))

				var result uploadResponse
				Expect(json.NewDecoder(resp.Body).Decode(&result)).To(Succeed())
				Expect(result.Report.Tone).To(Equal("Amical"))
			})
		})

		When("no file is attached", func() {
			It("should return a bad request", func() {
				body, contentType := buildUpload("", map[string]string{
					"company_name":   "Acme SARL",
					"signature_name": "Jean Dupont",
				})

				resp, err := http.Post(ghttpServer.URL()+"/api/reports", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

				var result map[string]string
				Expect(json.NewDecoder(resp.Body).Decode(&result)).To(Succeed())
				Expect(result["error"]).To(Equal("No file was selected. Please choose a file to upload."))
			})
		})

		When("the requester details are missing", func() {
			It("should return a bad request", func() {
				body, contentType := buildUpload("facture.pdf", map[string]string{
					"signature_name": "Jean Dupont",
				})

				resp, err := http.Post(ghttpServer.URL()+"/api/reports", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

				var result map[string]string
				Expect(json.NewDecoder(resp.Body).Decode(&result)).To(Succeed())
				Expect(result["error"]).To(Equal("company_name and signature_name are required"))
			})
		})

		When("the body is not multipart", func() {
			It("should return a bad request", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/reports", "application/json", strings.NewReader("{}"))
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

				var result map[string]string
				Expect(json.NewDecoder(resp.Body).Decode(&result)).To(Succeed())
				Expect(result["error"]).To(Equal("Error parsing form"))
			})
		})

		When("text extraction fails", func() {
			BeforeEach(func() {
				extractor.extractErr = errors.New("unsupported document format. Supported formats: PDF")
			})

			It("should return the analysis error", func() {
				body, contentType := buildUpload("facture.pdf", map[string]string{
					"company_name":   "Acme SARL",
					"signature_name": "Jean Dupont",
				})

				resp, err := http.Post(ghttpServer.URL()+"/api/reports", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

				var result map[string]string
				Expect(json.NewDecoder(resp.Body).Decode(&result)).To(Succeed())
				Expect(result["error"]).To(ContainSubstring("unsupported document format"))
			})
		})
	})

	Describe("GET /api/reports/{id}", func() {
		When("report exists", func() {
			BeforeEach(func() {
				db.reports["test-id"] = &Report{ID: "test-id", Vendor: "OVHcloud", Savings: 180.00}
			})

			It("should return the preview", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/reports/test-id")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var preview previewResponse
				Expect(json.NewDecoder(resp.Body).Decode(&preview)).To(Succeed())
				Expect(preview.Vendor).To(Equal("OVHcloud"))
				Expect(preview.Paid).To(BeFalse())
				Expect(preview.AnnualSavings).To(Equal(2160.00))
			})
		})

		When("the report is paid", func() {
			BeforeEach(func() {
				db.reports["test-id"] = &Report{ID: "test-id", Vendor: "OVHcloud"}
				db.paid["test-id"] = now
			})

			It("should mark the preview paid", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/reports/test-id")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var preview previewResponse
				Expect(json.NewDecoder(resp.Body).Decode(&preview)).To(Succeed())
				Expect(preview.Paid).To(BeTrue())
			})
		})

		When("report does not exist", func() {
			It("should return not found", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/reports/nonexistent")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("GET /api/reports/{id}/full", func() {
		BeforeEach(func() {
			db.reports["test-id"] = &Report{
				ID:       "test-id",
				Company:  "Acme SARL",
				Name:     "Jean Dupont",
				Vendor:   "OVHcloud",
				Currency: "EUR",
				Total:    1200.00,
				Savings:  180.00,
			}
		})

		When("the report is paid and the token is valid", func() {
			BeforeEach(func() {
				db.paid["test-id"] = now
			})

			It("should return the full report", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/reports/test-id/full?t=" + signer.Sign("test-id"))
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var full FullReport
				Expect(json.NewDecoder(resp.Body).Decode(&full)).To(Succeed())
				Expect(full.EmailSubject).To(Equal("Demande d’amélioration tarifaire - Acme SARL"))
				Expect(full.AnnualSavings).To(Equal(2160.00))
				Expect(full.Checklist).To(HaveLen(4))
				Expect(full.TotalDisplay).To(Equal("€1,200.00"))
			})
		})

		When("the token is invalid", func() {
			It("should return forbidden", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/reports/test-id/full?t=bad-token")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
			})
		})

		When("the report is not paid", func() {
			It("should return payment required", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/reports/test-id/full?t=" + signer.Sign("test-id"))
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusPaymentRequired))
			})
		})

		When("report does not exist", func() {
			It("should return not found", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/reports/nonexistent/full?t=" + signer.Sign("nonexistent"))
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("GET /api/reports/{id}/file", func() {
		When("the document exists", func() {
			BeforeEach(func() {
				db.reports["test-id"] = &Report{ID: "test-id", Filename: "test-id_facture.pdf"}
				storage.files["test-id_facture.pdf"] = []byte("%PDF-1.4 fake content")
			})

			It("should return the document", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/reports/test-id/file")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(resp.Header.Get("Content-Type")).To(Equal("application/pdf"))

				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(body).To(Equal([]byte("%PDF-1.4 fake content")))
			})
		})

		When("report does not exist", func() {
			It("should return not found", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/reports/nonexistent/file")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("DELETE /api/reports/{id}", func() {
		When("report exists", func() {
			BeforeEach(func() {
				db.reports["test-id"] = &Report{ID: "test-id", Filename: "test-id_facture.pdf"}
				storage.files["test-id_facture.pdf"] = []byte("%PDF-1.4 fake content")
			})

			It("should delete it", func() {
				req, err := http.NewRequest(http.MethodDelete, ghttpServer.URL()+"/api/reports/test-id", nil)
				Expect(err).NotTo(HaveOccurred())

				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
				Expect(db.reports).To(BeEmpty())
				Expect(storage.files).To(BeEmpty())
			})
		})

		When("report does not exist", func() {
			It("should return not found", func() {
				req, err := http.NewRequest(http.MethodDelete, ghttpServer.URL()+"/api/reports/nonexistent", nil)
				Expect(err).NotTo(HaveOccurred())

				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("POST /api/payments", func() {
		When("report exists", func() {
			BeforeEach(func() {
				db.reports["test-id"] = &Report{ID: "test-id"}
			})

			It("should open a payment", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/payments", "application/json",
					strings.NewReader(`{"report_id": "test-id"}`))
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusCreated))

				var result map[string]string
				Expect(json.NewDecoder(resp.Body).Decode(&result)).To(Succeed())
				Expect(result).To(HaveKeyWithValue("client_secret", "pay_test_secret_abc"))
				Expect(result).To(HaveKeyWithValue("reference", "pay_test"))
				Expect(result).To(HaveKeyWithValue("amount", "€9.00"))
			})
		})

		When("report does not exist", func() {
			It("should return not found", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/payments", "application/json",
					strings.NewReader(`{"report_id": "nonexistent"}`))
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})

		When("the body is not valid JSON", func() {
			It("should return a bad request", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/payments", "application/json",
					strings.NewReader("{not json"))
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		When("the provider fails", func() {
			BeforeEach(func() {
				db.reports["test-id"] = &Report{ID: "test-id"}
				provider.createErr = errors.New("provider down")
			})

			It("should return the error", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/payments", "application/json",
					strings.NewReader(`{"report_id": "test-id"}`))
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

				var result map[string]string
				Expect(json.NewDecoder(resp.Body).Decode(&result)).To(Succeed())
				Expect(result["error"]).To(ContainSubstring("provider down"))
			})
		})
	})

	Describe("POST /api/payments/{id}/confirm", func() {
		BeforeEach(func() {
			db.reports["test-id"] = &Report{ID: "test-id"}
		})

		When("the token is valid", func() {
			It("should mark the report paid", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/payments/test-id/confirm?t="+signer.Sign("test-id"),
					"application/json", nil)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var result map[string]bool
				Expect(json.NewDecoder(resp.Body).Decode(&result)).To(Succeed())
				Expect(result).To(HaveKeyWithValue("received", true))
				Expect(db.paid).To(HaveKey("test-id"))
			})
		})

		When("the token is invalid", func() {
			It("should return forbidden", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/payments/test-id/confirm?t=bad-token",
					"application/json", nil)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
				Expect(db.paid).To(BeEmpty())
			})
		})

		When("report does not exist", func() {
			It("should return not found", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/payments/nonexistent/confirm?t="+signer.Sign("nonexistent"),
					"application/json", nil)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})

		When("auth is configured", func() {
			BeforeEach(func() {
				server = NewServer(service, BasicAuth{Username: "admin", Password: "secret"})
				setupServer()
			})

			It("should stay reachable without credentials", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/payments/test-id/confirm?t="+signer.Sign("test-id"),
					"application/json", nil)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusOK))
			})
		})
	})

	Describe("authentication", func() {
		When("auth is configured", func() {
			BeforeEach(func() {
				server = NewServer(service, BasicAuth{Username: "admin", Password: "secret"})
				setupServer()
			})

			It("should accept valid credentials", func() {
				req, err := http.NewRequest(http.MethodGet, ghttpServer.URL()+"/api/reports", nil)
				Expect(err).NotTo(HaveOccurred())
				req.SetBasicAuth("admin", "secret")

				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusOK))
			})

			It("should reject invalid credentials", func() {
				req, err := http.NewRequest(http.MethodGet, ghttpServer.URL()+"/api/reports", nil)
				Expect(err).NotTo(HaveOccurred())
				req.SetBasicAuth("admin", "wrong")

				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			})

			It("should challenge requests without credentials", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/reports")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
				Expect(resp.Header.Get("WWW-Authenticate")).To(Equal(`Basic realm="SpendGuard"`))
			})
		})

		When("no auth is configured", func() {
			It("should accept requests without credentials", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/reports")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusOK))
			})
		})
	})

	Describe("corsMiddleware", func() {
		It("should answer preflight requests", func() {
			handler := server.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			rec := httptest.NewRecorder()
			handler(rec, httptest.NewRequest(http.MethodOptions, "/api/reports", nil))

			Expect(rec.Code).To(Equal(http.StatusNoContent))
			Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
			Expect(rec.Header().Get("Access-Control-Allow-Methods")).To(ContainSubstring("OPTIONS"))
		})

		It("should pass other requests through with CORS headers", func() {
			handler := server.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTeapot)
			})

			rec := httptest.NewRecorder()
			handler(rec, httptest.NewRequest(http.MethodGet, "/api/reports", nil))

			Expect(rec.Code).To(Equal(http.StatusTeapot))
			Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})
	})
})
