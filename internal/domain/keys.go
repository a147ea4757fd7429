package domain

// KeyPrefix namespaces all docsense keys in the backing store.
const KeyPrefix = "docsense:"
