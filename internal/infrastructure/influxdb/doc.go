// Package influxdb writes optional leash telemetry to InfluxDB v2.
//
// Every emitted movement vector and every client connect/disconnect becomes
// a point tagged with the instance ID, which makes session replays and
// tuning comparisons possible in Grafana or the InfluxDB UI.
//
//	client, err := influxdb.Connect(cfg.InfluxDB, cfg.Instance.ID)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	client.WriteMovement(influxdb.Movement{Vertical: 0.4}, time.Now())
//
// Writes are batched (influxdb.batch_size, influxdb.flush_interval in ms) and
// never block the calculation path.
package influxdb
