// Package client provides the `feedsync` command-line client.
//
// The CLI talks to the feedsync HTTP gateway to drive a sync chain from a
// terminal. It is primarily intended for developers and operators.
//
// # Address configuration
//
// The HTTP base URL is discovered by the application that embeds the
// commands via a BaseURLFunc and can be overridden with --url. Basic auth
// credentials come from --user/--password (FEEDSYNC_USER,
// FEEDSYNC_PASSWORD), the admin key from --admin-key (FEEDSYNC_ADMIN_KEY),
// and the chain identity from --sync-code/--device-id (FEEDSYNC_SYNC_CODE,
// FEEDSYNC_DEVICE_ID).
//
// Usage
//
//	feedsync chain create --name laptop
//	feedsync chain join --sync-code $CODE --name phone
//	feedsync chain devices --sync-code $CODE --device-id $ID
//	feedsync chain leave --sync-code $CODE --device-id $ID
//
//	feedsync chain readmark --sync-code $CODE --device-id $ID --since 0
//	feedsync chain readmark --sync-code $CODE --device-id $ID \
//	    --feed https://example.com/feed.xml --guid a1 --guid a2
//	feedsync chain ereadmark --sync-code $CODE --device-id $ID --data BASE64
//
//	feedsync chain feeds --sync-code $CODE --device-id $ID
//	feedsync chain push-feeds --sync-code $CODE --device-id $ID \
//	    --hash 42 --data BLOB --if-match 'W/"41"'
//
//	feedsync admin gc-sweep --admin-key $KEY
//	feedsync admin chain $CODE --admin-key $KEY
package client
