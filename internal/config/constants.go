package config

// ModulePath is the import path of this module. Generated code imports
// the runtime package from it.
const ModulePath = "github.com/funvibe/dyncast"

// RuntimePackage is the import path of the runtime library.
const RuntimePackage = ModulePath + "/pkg/dyncast"

// Version is reported by dyncastgen version.
const Version = "0.3.0"

// CodegenVersion is bumped when the generated code format changes.
// The ledger treats packages generated by another version as stale.
const CodegenVersion = "v2"

// ConfigFileNames are searched for, in order, in each directory.
var ConfigFileNames = []string{"dyncast.yaml", "dyncast.yml", "dyncast.toml"}

// Directive marks a struct type as a participant in its doc comment.
const Directive = "//dyncast:type"

// Generated file names
const (
	DefaultOutputFile = "zz_dyncast.go"
	TestOutputFile    = "zz_dyncast_test.go"
)

// Ledger location, relative to the config directory.
const (
	StateDirName   = ".dyncast"
	LedgerFileName = "ledger.db"
)

// Names the generator looks for and emits
const (
	HeaderTypeName      = "Header"
	BasesMethodName     = "Bases"
	DynamicTypeMethod   = "DynamicType"
	BaseTypeName        = "Base"
	RuntimePackageAlias = "dyncast"
)

// IsTestMode disables terminal color so golden output stays stable.
// Set once by tests before any output is produced.
var IsTestMode = false
