// Package llmtrace is the stable public API for embedding llmtrace's
// proxy, cook, and viewer components in another Go program. It is a thin
// re-export of the internal packages that do the actual work.
package llmtrace

import (
	"github.com/tjfontaine/llmtrace/internal/artifact"
	"github.com/tjfontaine/llmtrace/internal/cook"
	"github.com/tjfontaine/llmtrace/internal/proxy"
	"github.com/tjfontaine/llmtrace/internal/trace"
	"github.com/tjfontaine/llmtrace/internal/viewer"
	"github.com/tjfontaine/llmtrace/internal/viewer/recent"
)

// Proxy intercepts streaming LLM API calls and appends a TraceRecord for
// each to a capture log. See internal/proxy.Proxy for full documentation.
type Proxy = proxy.Proxy

// ProxyConfig configures a Proxy.
type ProxyConfig = proxy.Config

// NewProxy builds a Proxy from cfg.
var NewProxy = proxy.New

// Record is one captured upstream call.
type Record = trace.Record

// CaptureLog is the append-only file a Proxy writes Records to.
type CaptureLog = trace.CaptureLog

// OpenCaptureLog opens (creating if necessary) a capture log at path.
var OpenCaptureLog = trace.OpenCaptureLog

// ReadRecords reads every Record from a capture log, skipping and logging
// any malformed lines rather than failing the whole read.
var ReadRecords = trace.ReadRecords

// Document is the derived artifact produced by Cook: deduplicated
// messages and tools plus per-request lineage.
type Document = artifact.Document

// CookFormat is an explicit dialect hint for Cook.
type CookFormat = cook.Format

const (
	CookFormatAuto   = cook.FormatAuto
	CookFormatOpenAI = cook.FormatOpenAI
	CookFormatClaude = cook.FormatClaude
)

// Cook normalises a capture log's records into a Document, reconstructing
// request/response lineage across the whole run.
var Cook = cook.Cook

// Viewer serves the static UI bundle and the derived artifact for a
// single capture log, re-cooking automatically whenever the log changes.
type Viewer = viewer.Viewer

// NewViewer builds a Viewer for inputPath.
var NewViewer = viewer.New

// RecentStore is a sqlite-backed index of recently opened capture logs.
type RecentStore = recent.Store

// OpenRecentStore opens (creating if necessary) a recent-artifacts index.
var OpenRecentStore = recent.Open
