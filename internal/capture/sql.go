package capture

const (
	selectDevicesSQL = `
    SELECT
        devmac,
        type,
        device,
        strongest_signal,
        min_lat,
        min_lon,
        last_time
    FROM devices
    ORDER BY last_time ASC`

	selectDevicesByTimeSQL = `
    SELECT
        devmac,
        type,
        device,
        strongest_signal,
        min_lat,
        min_lon,
        last_time
    FROM devices
    WHERE last_time BETWEEN ? AND ?
    ORDER BY last_time ASC`

	selectDevicesFromTimeSQL = `
    SELECT
        devmac,
        type,
        device,
        strongest_signal,
        min_lat,
        min_lon,
        last_time
    FROM devices
    WHERE last_time >= ?
    ORDER BY last_time ASC`

	selectDevicesToTimeSQL = `
    SELECT
        devmac,
        type,
        device,
        strongest_signal,
        min_lat,
        min_lon,
        last_time
    FROM devices
    WHERE last_time <= ?
    ORDER BY last_time ASC`

	selectAlertsSQL = `
    SELECT
        devmac,
        json,
        ts_sec
    FROM alerts
    ORDER BY ts_sec ASC`
)
