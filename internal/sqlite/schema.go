// Package sqlite implements the embedded-relational hash database backend
// (.kdb files). Hash values are stored as BLOBs in a single hashes table,
// with file names and comments in side tables keyed by hash row; indexing
// is internal to SQLite, so the format needs no detached index files and
// is the only format that accepts updates.
package sqlite

// Schema DDL, executed in order on Create.
const (
	createDBProperties = `CREATE TABLE db_properties (
    name TEXT NOT NULL,
    value TEXT
);`

	createHashes = `CREATE TABLE hashes (
    id INTEGER PRIMARY KEY,
    md5 BLOB,
    sha1 BLOB,
    sha256 BLOB
);`

	createFileNames = `CREATE TABLE file_names (
    name TEXT NOT NULL,
    hash_id INTEGER NOT NULL,
    FOREIGN KEY (hash_id) REFERENCES hashes(id)
);`

	createComments = `CREATE TABLE comments (
    comment TEXT NOT NULL,
    hash_id INTEGER NOT NULL,
    FOREIGN KEY (hash_id) REFERENCES hashes(id)
);`
)

const (
	idxMD5       = `CREATE INDEX md5_index ON hashes(md5);`
	idxSHA1      = `CREATE INDEX sha1_index ON hashes(sha1);`
	idxSHA256    = `CREATE INDEX sha256_index ON hashes(sha256);`
	idxNamesHash = `CREATE INDEX file_names_hash_id ON file_names(hash_id);`
)

var schemaDDL = []string{
	createDBProperties,
	createHashes,
	createFileNames,
	createComments,
}

var indexDDL = []string{
	idxMD5,
	idxSHA1,
	idxSHA256,
	idxNamesHash,
}

// db_properties keys.
const (
	propSchemaVersion = "schema_version"
	propDatabaseGUID  = "database_guid"
	propCreationDate  = "creation_date"
)

const schemaVersion = "1"
