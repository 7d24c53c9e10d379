// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package katcp

import "expvar"

// codecMetrics record codec activity counters.
type codecMetrics struct {
	lineParsed   expvar.Int // number of lines decoded into messages
	lineErr      expvar.Int // number of lines reported as parse errors
	lineBlank    expvar.Int // number of blank lines silently dropped
	msgFormatted expvar.Int // number of messages encoded to wire form

	emap *expvar.Map
}

var rootMetrics = newCodecMetrics()

func newCodecMetrics() *codecMetrics {
	cm := &codecMetrics{emap: new(expvar.Map)}
	cm.emap.Set("lines_parsed", &cm.lineParsed)
	cm.emap.Set("parse_errors", &cm.lineErr)
	cm.emap.Set("lines_blank", &cm.lineBlank)
	cm.emap.Set("messages_formatted", &cm.msgFormatted)
	return cm
}

// Metrics returns the expvar map of metrics updated by p. By default,
// metrics are shared globally among all parsers; it is safe for the caller
// to modify the map to add, update, and remove entries.
func (p *Parser) Metrics() *expvar.Map { return p.metrics.emap }

// Detach disconnects p from the shared metrics map, giving it a fresh
// private map. It returns p to permit chaining.
func (p *Parser) Detach() *Parser {
	p.metrics = newCodecMetrics()
	return p
}
