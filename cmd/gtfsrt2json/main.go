// Command gtfsrt2json dumps a binary GTFS-RT feed as JSON, useful for
// inspecting what a producer actually publishes.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/linkedtransit/gtfsrt2lc/gtfsrt"
	"github.com/linkedtransit/gtfsrt2lc/internal"
)

func main() {
	realtime := flag.String("realtime", "", "URL or path to a GTFS-RT feed")
	headers := flag.String("headers", "", `extra HTTP headers as JSON, e.g. {"api-Key":"someApiKey"}`)
	flag.Parse()

	internal.InitLogging()

	if *realtime == "" {
		log.Fatal("please provide a url or a path to a GTFS-RT feed")
	}
	hdrs := map[string]string{}
	if *headers != "" {
		if err := json.Unmarshal([]byte(*headers), &hdrs); err != nil {
			log.Fatal("please provide a valid JSON string for the extra HTTP headers")
		}
	}

	raw, err := gtfsrt.NewClient(hdrs).Fetch(*realtime)
	if err != nil {
		log.Fatal(err)
	}
	out, err := gtfsrt.DecodeJSON(raw)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(out))
}
