// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package requests exposes Prometheus counters for the paste service. All
// label sets are drawn from fixed vocabularies (route names, error kinds,
// rejection reasons) — no unbounded cardinality, and in particular never a
// paste id or salt.
package requests

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ghostbin_http_requests_total",
		Help: "HTTP requests handled, by route and response status",
	}, []string{"route", "status"})
	powRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ghostbin_pow_rejections_total",
		Help: "Proof-of-work verifications rejected, by stable reason message",
	}, []string{"reason"})
	admissionRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ghostbin_admission_rejected_total",
		Help: "Requests rejected by the concurrency admission layer, by permit kind",
	}, []string{"kind"})
	pastesCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ghostbin_pastes_created_total",
		Help: "Pastes successfully created",
	})
	burnsScheduledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ghostbin_burns_scheduled_total",
		Help: "Burn-after-read pastes whose deletion was scheduled by a read",
	})
	pastesDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ghostbin_pastes_deleted_total",
		Help: "Pastes removed through the delete endpoint",
	})
)

func init() {
	// Register eagerly. If no /metrics endpoint is exposed, the
	// registration is harmless.
	prometheus.MustRegister(
		httpRequestsTotal,
		powRejectionsTotal,
		admissionRejectedTotal,
		pastesCreatedTotal,
		burnsScheduledTotal,
		pastesDeletedTotal,
	)
}

// ObserveHTTP records one handled request for the named route.
func ObserveHTTP(route string, status int) {
	httpRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// ObservePoWRejection records a failed proof-of-work verification. reason
// must be one of the protocol's stable message strings.
func ObservePoWRejection(reason string) {
	powRejectionsTotal.WithLabelValues(reason).Inc()
}

// ObserveAdmissionRejected records a 429 from the admission layer.
// kind is "read" or "challenge".
func ObserveAdmissionRejected(kind string) {
	admissionRejectedTotal.WithLabelValues(kind).Inc()
}

// ObservePasteCreated records a successful create.
func ObservePasteCreated() { pastesCreatedTotal.Inc() }

// ObserveBurnScheduled records a read that cut a paste's TTL to the burn
// grace window.
func ObserveBurnScheduled() { burnsScheduledTotal.Inc() }

// ObservePasteDeleted records a successful delete.
func ObservePasteDeleted() { pastesDeletedTotal.Inc() }
