package featuregate

// Exported for tests in the featuregate_test package.
const StorageKey = storageKey
const PersistedSchemaVersion = persistedSchemaVersion
