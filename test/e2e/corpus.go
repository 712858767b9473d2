// Package e2e provides end-to-end tests with a document corpus and multiple queries.
package e2e

import (
	"fmt"
	"strings"
)

// E2EDocument is a document entry in the E2E corpus (file name and text).
type E2EDocument struct {
	Filename string
	Content  string
}

// QueryTestCase defines a query and the file names that must be returned for it.
type QueryTestCase struct {
	Query             string
	ExpectedFilenames []string
	Description       string
}

// Corpus holds documents and query test cases for E2E tests.
type Corpus struct {
	Documents    []E2EDocument
	TestCases    []QueryTestCase
	TotalDocs    int
	TotalQueries int
}

var topics = []struct {
	name    string
	phrase  string
	content string
}{
	{"python-guide", "Python programming language", "Python is a high-level programming language. Python programming language is used for web development and data science."},
	{"kubernetes-docs", "Kubernetes container orchestration", "Kubernetes is an open-source container orchestration platform. Kubernetes container orchestration automates deployment and scaling."},
	{"react-tutorial", "React hooks and components", "React is a JavaScript library. React hooks and components enable building user interfaces."},
	{"go-language", "Go golang concurrency", "Go is a statically typed language. Go golang concurrency is achieved with goroutines and channels."},
	{"postgresql-manual", "PostgreSQL relational database", "PostgreSQL is an advanced relational database. PostgreSQL relational database supports JSON and full-text search."},
	{"docker-handbook", "Docker container images", "Docker enables building and shipping applications. Docker container images are portable across environments."},
	{"machine-learning", "machine learning algorithms", "Machine learning is a subset of AI. Machine learning algorithms learn patterns from data."},
	{"rest-api-design", "REST API endpoints", "REST is an architectural style for APIs. REST API endpoints use HTTP methods and status codes."},
	{"redis-cache", "Redis in-memory cache", "Redis is an in-memory data store. Redis in-memory cache is used for sessions and caching."},
	{"terraform-iac", "Terraform infrastructure as code", "Terraform manages cloud infrastructure. Terraform infrastructure as code is declarative."},
	{"grpc-overview", "gRPC remote procedure calls", "gRPC is a high-performance RPC framework. gRPC remote procedure calls use HTTP/2 and protobuf."},
	{"oauth", "OAuth 2.0 authorization", "OAuth 2.0 is an authorization framework. OAuth 2.0 authorization enables secure delegated access."},
	{"git-workflow", "Git version control", "Git is a distributed version control system. Git version control tracks changes in source code."},
	{"kafka-streams", "Apache Kafka streaming", "Apache Kafka is a distributed event stream platform. Apache Kafka streaming handles high throughput."},
	{"nginx-config", "Nginx reverse proxy", "Nginx is a web server and reverse proxy. Nginx reverse proxy balances load and serves static files."},
	{"cryptography-basics", "cryptography encryption decryption", "Cryptography secures data. Cryptography encryption decryption uses keys and algorithms."},
	{"load-balancing", "load balancing high availability", "Load balancers distribute traffic. Load balancing high availability prevents single points of failure."},
	{"event-sourcing", "event sourcing CQRS", "Event sourcing stores state as events. Event sourcing CQRS separates read and write models."},
	{"unit-testing", "unit testing mock", "Unit tests verify small units of code. Unit testing mock isolates dependencies."},
	{"password-hashing", "password hashing bcrypt", "Passwords must be hashed. Password hashing bcrypt is resistant to rainbow tables."},
	{"backup-strategy", "backup strategy recovery", "Backups protect against data loss. Backup strategy recovery includes RTO and RPO."},
	{"rate-limiting", "rate limiting throttling", "Rate limiting protects APIs. Rate limiting throttling can be per-user or global."},
	{"audit-logging", "audit logging compliance", "Audit logs record who did what. Audit logging compliance is required in regulated industries."},
	{"feature-flags", "feature flags rollout", "Feature flags toggle functionality. Feature flags rollout allows gradual release."},
}

// BuildCorpus returns one document per topic and one query per topic phrase.
// Each phrase appears in exactly one document so queries can assert the file that matches.
func BuildCorpus() *Corpus {
	docs := buildDocuments()
	cases := buildQueryTestCases(docs)
	return &Corpus{
		Documents:    docs,
		TestCases:    cases,
		TotalDocs:    len(docs),
		TotalQueries: len(cases),
	}
}

func buildDocuments() []E2EDocument {
	out := make([]E2EDocument, 0, len(topics))
	for i, t := range topics {
		out = append(out, E2EDocument{
			Filename: fmt.Sprintf("%02d-%s", i+1, t.name),
			Content:  t.content,
		})
	}
	return out
}

func buildQueryTestCases(docs []E2EDocument) []QueryTestCase {
	var cases []QueryTestCase
	for _, t := range topics {
		var expected []string
		for _, d := range docs {
			if containsPhrase(d, t.phrase) {
				expected = append(expected, d.Filename)
			}
		}
		if len(expected) == 0 {
			continue
		}
		cases = append(cases, QueryTestCase{
			Query:             t.phrase,
			ExpectedFilenames: expected,
			Description:       fmt.Sprintf("query %q should return %s", t.phrase, strings.Join(expected, ",")),
		})
	}
	return cases
}

// containsPhrase reports whether the document text contains phrase, ignoring case.
func containsPhrase(d E2EDocument, phrase string) bool {
	return strings.Contains(strings.ToLower(d.Content), strings.ToLower(phrase))
}
