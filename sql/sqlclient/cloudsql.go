// Copyright 2024-present The Stencil Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package sqlclient

import (
	"cloud.google.com/go/cloudsqlconn"
	cloudmysql "cloud.google.com/go/cloudsqlconn/mysql/mysql"
	cloudpostgres "cloud.google.com/go/cloudsqlconn/postgres/pgxv4"
)

// Driver names registered by the Cloud SQL connectors. Pass them to
// OpenDriver together with the matching family.
const (
	CloudSQLPostgres = "cloudsql-postgres"
	CloudSQLMySQL    = "cloudsql-mysql"
)

// RegisterCloudSQLPostgres registers a Postgres driver that dials Cloud
// SQL instances through the Cloud SQL connector. The returned cleanup
// function closes the dialer.
func RegisterCloudSQLPostgres(opts ...cloudsqlconn.Option) (func() error, error) {
	return cloudpostgres.RegisterDriver(CloudSQLPostgres, opts...)
}

// RegisterCloudSQLMySQL registers a MySQL driver that dials Cloud SQL
// instances through the Cloud SQL connector. The returned cleanup
// function closes the dialer.
func RegisterCloudSQLMySQL(opts ...cloudsqlconn.Option) (func() error, error) {
	return cloudmysql.RegisterDriver(CloudSQLMySQL, opts...)
}
