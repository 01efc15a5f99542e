package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

const usage = `Использование: roofctl <команда> [аргументы]

Команды:
  health             проверить детектор и сегментатор
  status             состояние потоков
  snapshot <поток>   сохранить последний кадр потока
  stop <поток>       остановить поток
  alerts [поток]     последние оповещения`

func main() {
	baseURL := os.Getenv("ROOFWATCH_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(2)
	}

	client := resty.New().
		SetBaseURL(baseURL + "/api/v1").
		SetTimeout(30 * time.Second)

	var (
		resp *resty.Response
		err  error
	)

	switch cmd := os.Args[1]; cmd {
	case "health":
		resp, err = client.R().Get("/health")
	case "status":
		resp, err = client.R().Get("/status")
	case "snapshot", "stop":
		if len(os.Args) < 3 {
			fmt.Println(usage)
			os.Exit(2)
		}
		resp, err = client.R().SetPathParam("id", os.Args[2]).Post("/streams/{id}/" + cmd)
	case "alerts":
		req := client.R().SetQueryParam("size", "20")
		if len(os.Args) > 2 {
			req.SetQueryParam("stream", os.Args[2])
		}
		resp, err = req.Get("/alerts")
	default:
		fmt.Printf("Неизвестная команда: %s\n\n%s\n", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Printf("Ошибка запроса: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Ответ (статус %d):\n%s\n", resp.StatusCode(), resp.String())
	if resp.IsError() {
		os.Exit(1)
	}
}
