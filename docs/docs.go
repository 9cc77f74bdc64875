// Package docs holds the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/tournaments": {
            "get": {
                "tags": ["tournaments"], "summary": "Список турниров", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "integer", "name": "creator_id", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Неверные параметры"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tournaments"], "summary": "Создать турнир",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.CreateTournamentInput"}}],
                "responses": {"201": {"description": "Турнир создан"}, "400": {"description": "Ошибка валидации"}, "401": {"description": "Неавторизован"}}
            }
        },
        "/tournaments/{tournamentID}": {
            "get": {
                "tags": ["tournaments"], "summary": "Турнир с участниками и матчами", "produces": ["application/json"],
                "parameters": [{"type": "integer", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Турнир не найден"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["tournaments"], "summary": "Удалить турнир",
                "parameters": [{"type": "integer", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"204": {"description": "Удалён"}, "403": {"description": "Только создатель"}, "404": {"description": "Турнир не найден"}}
            }
        },
        "/tournaments/{tournamentID}/join": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["participants"], "summary": "Присоединиться к турниру",
                "parameters": [{"type": "integer", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"201": {"description": "Участник добавлен"}, "404": {"description": "Турнир не найден"}, "409": {"description": "Уже участвует / турнир заполнен / регистрация закрыта"}}
            }
        },
        "/tournaments/{tournamentID}/start": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tournaments"], "summary": "Запустить турнир",
                "parameters": [{"type": "integer", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"200": {"description": "Сгенерированные матчи"}, "403": {"description": "Только создатель"}, "409": {"description": "Турнир уже запущен"}, "422": {"description": "Недостаточно участников"}}
            }
        },
        "/tournaments/{tournamentID}/finish": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tournaments"], "summary": "Завершить турнир",
                "parameters": [{"type": "integer", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Только создатель"}, "409": {"description": "Турнир не в процессе"}}
            }
        },
        "/tournaments/{tournamentID}/participants": {
            "get": {
                "tags": ["participants"], "summary": "Участники турнира",
                "parameters": [{"type": "integer", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Турнир не найден"}}
            }
        },
        "/tournaments/{tournamentID}/matches": {
            "get": {
                "tags": ["matches"], "summary": "Матчи турнира",
                "parameters": [{"type": "integer", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Турнир не найден"}}
            }
        },
        "/tournaments/{tournamentID}/matches/next": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["matches"], "summary": "Начать следующий матч",
                "parameters": [{"type": "integer", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Турнир не найден"}, "409": {"description": "Нет ожидающих матчей"}}
            }
        },
        "/tournaments/{tournamentID}/archive": {
            "get": {
                "tags": ["tournaments"], "summary": "Ссылка на архив результатов",
                "parameters": [{"type": "integer", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Турнир не найден или ещё не заархивирован"}, "503": {"description": "Архив не настроен"}}
            }
        },
        "/matches/{matchID}": {
            "get": {
                "tags": ["matches"], "summary": "Матч",
                "parameters": [{"type": "integer", "name": "matchID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Матч не найден"}}
            }
        },
        "/matches/{matchID}/complete": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["matches"], "summary": "Записать результат матча",
                "consumes": ["application/json"],
                "parameters": [
                    {"type": "integer", "name": "matchID", "in": "path", "required": true},
                    {"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.completeMatchRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Победитель не из матча / отрицательный счёт"}, "404": {"description": "Матч или победитель не найден"}, "409": {"description": "Матч не в процессе"}}
            }
        },
        "/matches/{matchID}/score": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["matches"], "summary": "Обновить текущий счёт матча",
                "consumes": ["application/json"],
                "parameters": [
                    {"type": "integer", "name": "matchID", "in": "path", "required": true},
                    {"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.updateScoresRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Отрицательный счёт"}, "403": {"description": "Не игрок матча и не создатель турнира"}, "404": {"description": "Матч не найден"}, "409": {"description": "Матч не в процессе"}}
            }
        },
        "/matches/{matchID}/ready": {
            "get": {
                "tags": ["matches"], "summary": "Готовность игроков матча",
                "parameters": [{"type": "integer", "name": "matchID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Матч не найден"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["matches"], "summary": "Отметить готовность игрока",
                "parameters": [{"type": "integer", "name": "matchID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Не игрок матча"}, "404": {"description": "Матч не найден"}, "409": {"description": "Матч не в процессе"}}
            }
        },
        "/users/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"], "summary": "Текущий пользователь",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Неавторизован"}}
            }
        },
        "/users/{userID}": {
            "get": {
                "tags": ["users"], "summary": "Профиль пользователя",
                "parameters": [{"type": "integer", "name": "userID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Пользователь не найден"}}
            }
        }
    },
    "definitions": {
        "services.CreateTournamentInput": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "display_name": {"type": "string"},
                "max_participants": {"type": "integer"}
            }
        },
        "handlers.updateScoresRequest": {
            "type": "object",
            "properties": {
                "player1_score": {"type": "integer"},
                "player2_score": {"type": "integer"}
            }
        },
        "handlers.completeMatchRequest": {
            "type": "object",
            "properties": {
                "winner_id": {"type": "integer"},
                "player1_score": {"type": "integer"},
                "player2_score": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Tournament Lifecycle API",
	Description:      "Round-robin tournaments: creation, enrollment, match progression.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
