// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingestion

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsIngestion holds Prometheus metrics for the ingestion subsystem.
type metricsIngestion struct {
	once sync.Once

	// Files
	filesParsed  prometheus.Counter
	filesSkipped prometheus.Counter
	parseErrors  prometheus.Counter

	// Symbols
	functionsExtracted prometheus.Counter
	classesExtracted   prometheus.Counter
	importsExtracted   prometheus.Counter

	// Linking
	callsResolved prometheus.Counter
	callsDropped  prometheus.Counter
	patternsFound prometheus.Counter

	// Writes
	nodesUpserted prometheus.Counter
	edgesUpserted prometheus.Counter

	// Durations
	loadDuration  prometheus.Histogram
	parseDuration prometheus.Histogram
	linkDuration  prometheus.Histogram
	writeDuration prometheus.Histogram
	totalDuration prometheus.Histogram
}

var ingMetrics metricsIngestion

func (m *metricsIngestion) init() {
	m.once.Do(func() {
		m.filesParsed = prometheus.NewCounter(prometheus.CounterOpts{Name: "codegraph_ing_files_parsed_total", Help: "Archivos parseados correctamente"})
		m.filesSkipped = prometheus.NewCounter(prometheus.CounterOpts{Name: "codegraph_ing_files_skipped_total", Help: "Archivos descartados por filtros del loader"})
		m.parseErrors = prometheus.NewCounter(prometheus.CounterOpts{Name: "codegraph_ing_parse_errors_total", Help: "Archivos con errores de sintaxis"})

		m.functionsExtracted = prometheus.NewCounter(prometheus.CounterOpts{Name: "codegraph_ing_functions_total", Help: "Funciones extraídas"})
		m.classesExtracted = prometheus.NewCounter(prometheus.CounterOpts{Name: "codegraph_ing_classes_total", Help: "Clases extraídas"})
		m.importsExtracted = prometheus.NewCounter(prometheus.CounterOpts{Name: "codegraph_ing_imports_total", Help: "Imports extraídos"})

		m.callsResolved = prometheus.NewCounter(prometheus.CounterOpts{Name: "codegraph_ing_calls_resolved_total", Help: "Llamadas resueltas contra la tabla de símbolos"})
		m.callsDropped = prometheus.NewCounter(prometheus.CounterOpts{Name: "codegraph_ing_calls_dropped_total", Help: "Llamadas descartadas (destino fuera del corpus)"})
		m.patternsFound = prometheus.NewCounter(prometheus.CounterOpts{Name: "codegraph_ing_patterns_total", Help: "Participaciones en patrones de diseño detectadas"})

		m.nodesUpserted = prometheus.NewCounter(prometheus.CounterOpts{Name: "codegraph_ing_nodes_upserted_total", Help: "Nodos escritos al grafo"})
		m.edgesUpserted = prometheus.NewCounter(prometheus.CounterOpts{Name: "codegraph_ing_edges_upserted_total", Help: "Relaciones escritas al grafo"})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
		m.loadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "codegraph_ing_load_seconds", Help: "Duración de carga del snapshot", Buckets: buckets})
		m.parseDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "codegraph_ing_parse_seconds", Help: "Duración de parseo y extracción", Buckets: buckets})
		m.linkDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "codegraph_ing_link_seconds", Help: "Duración de enlazado del grafo", Buckets: buckets})
		m.writeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "codegraph_ing_write_seconds", Help: "Duración de escrituras", Buckets: buckets})
		m.totalDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "codegraph_ing_total_seconds", Help: "Duración total de la ejecución", Buckets: buckets})

		prometheus.MustRegister(
			m.filesParsed, m.filesSkipped, m.parseErrors,
			m.functionsExtracted, m.classesExtracted, m.importsExtracted,
			m.callsResolved, m.callsDropped, m.patternsFound,
			m.nodesUpserted, m.edgesUpserted,
			m.loadDuration, m.parseDuration, m.linkDuration, m.writeDuration, m.totalDuration,
		)
	})
}

// record helpers - used by pipeline for metrics tracking
func recordParseError() { ingMetrics.init(); ingMetrics.parseErrors.Inc() }
