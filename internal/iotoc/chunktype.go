package iotoc

// ChunkType is the tag carried in the last byte of a ChunkId.
type ChunkType uint8

const (
	ChunkTypeExportBundleData     ChunkType = 0
	ChunkTypeBulkData             ChunkType = 1
	ChunkTypeOptionalBulkData     ChunkType = 2
	ChunkTypeMemoryMappedBulkData ChunkType = 3
	ChunkTypeScriptObjects        ChunkType = 4
	ChunkTypeContainerHeader      ChunkType = 5
	ChunkTypeExternalFile         ChunkType = 6
	ChunkTypeShaderCodeLibrary    ChunkType = 7
	ChunkTypeShaderCode           ChunkType = 8
	ChunkTypePackageStoreEntry    ChunkType = 9
	ChunkTypeDerivedData          ChunkType = 10
	ChunkTypeEditorDerivedData    ChunkType = 11
)

// String renders the ChunkType tag by name; this is purely diagnostic, the
// core never branches on the rendered string.
func (t ChunkType) String() string {
	switch t {
	case ChunkTypeExportBundleData:
		return "ExportBundleData"
	case ChunkTypeBulkData:
		return "BulkData"
	case ChunkTypeOptionalBulkData:
		return "OptionalBulkData"
	case ChunkTypeMemoryMappedBulkData:
		return "MemoryMappedBulkData"
	case ChunkTypeScriptObjects:
		return "ScriptObjects"
	case ChunkTypeContainerHeader:
		return "ContainerHeader"
	case ChunkTypeExternalFile:
		return "ExternalFile"
	case ChunkTypeShaderCodeLibrary:
		return "ShaderCodeLibrary"
	case ChunkTypeShaderCode:
		return "ShaderCode"
	case ChunkTypePackageStoreEntry:
		return "PackageStoreEntry"
	case ChunkTypeDerivedData:
		return "DerivedData"
	case ChunkTypeEditorDerivedData:
		return "EditorDerivedData"
	default:
		return "Unknown"
	}
}
