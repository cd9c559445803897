// Package wsserver streams committed snapshots to WebSocket clients.
//
// The Hub is both the pipeline's Publisher and the /ws http.Handler:
//
//   - Every client gets the current snapshot on connect
//   - Publish encodes a snapshot once and offers it to every client's
//     single-slot mailbox; a client that is still writing the previous
//     frame loses it to the newer one, the broadcaster never blocks
//   - Inbound JSON commands are rate limited per client and forwarded
//     to a service.CommandSink; rejections come back as error frames
//
// Wire format (text frames):
//
//	{"type":"snapshot","seq":42,"models":{"gear_A":{...}}}
//	{"type":"error","code":"SS-MODEL-4040","message":"model not found: ghost"}
//
// Inbound:
//
//	{"type":"set_speed","model":"gear_A","value":2.5}
//	{"type":"pause"}
package wsserver
